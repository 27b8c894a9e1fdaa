package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
	"github.com/couchcryptid/wq-threshold-etl/internal/observability"
)

// ResultLoader writes analysis results to a destination.
type ResultLoader interface {
	LoadBatch(ctx context.Context, results []domain.Result) error
}

// Loader renders an XLSX workbook and a PDF chart per result into a
// directory, then delegates to the wrapped loader. Rendering failures are
// logged and counted but never block delivery.
type Loader struct {
	inner   ResultLoader
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a report decorator around a loader.
func NewLoader(inner ResultLoader, dir string, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{inner: inner, dir: dir, logger: logger, metrics: metrics}
}

func (l *Loader) LoadBatch(ctx context.Context, results []domain.Result) error {
	for i := range results {
		l.render(results[i])
	}
	return l.inner.LoadBatch(ctx, results)
}

func (l *Loader) render(result domain.Result) {
	formats := []struct {
		ext   string
		build func(domain.Result) ([]byte, error)
	}{
		{"xlsx", BuildXLSX},
		{"pdf", BuildChartPDF},
	}

	for _, f := range formats {
		path, err := l.write(result, f.ext, f.build)
		if err != nil {
			l.logger.Warn("report rendering failed",
				"format", f.ext,
				"station", result.Station,
				"result_id", result.ID,
				"error", err,
			)
			l.metrics.ReportsWritten.WithLabelValues(f.ext, "error").Inc()
			continue
		}
		l.logger.Debug("report written", "format", f.ext, "path", path)
		l.metrics.ReportsWritten.WithLabelValues(f.ext, "success").Inc()
	}
}

func (l *Loader) write(result domain.Result, ext string, build func(domain.Result) ([]byte, error)) (string, error) {
	data, err := build(result)
	if err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, FileName(result, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // reports are meant to be shared
		return "", fmt.Errorf("write %s report: %w", ext, err)
	}
	return path, nil
}

// FileName returns "<station>-<result id>.<ext>", falling back to the
// analysis time when the result has no ID.
func FileName(result domain.Result, ext string) string {
	id := result.ID
	if id == "" {
		id = result.AnalyzedAt.UTC().Format("20060102T150405Z")
	}
	station := result.Station
	if station == "" {
		station = "unknown"
	}
	return fmt.Sprintf("%s-%s.%s", station, id, ext)
}
