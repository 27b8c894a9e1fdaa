package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
	"github.com/couchcryptid/wq-threshold-etl/internal/observability"
)

// AnalysisTransformer implements Transformer by decoding a station dataset
// and running threshold detection and aggregation over it.
type AnalysisTransformer struct {
	analysis domain.Analysis
	logger   *slog.Logger
	metrics  *observability.Metrics
	newID    func() string
}

// NewTransformer creates an AnalysisTransformer for a fixed analysis definition.
func NewTransformer(analysis domain.Analysis, logger *slog.Logger, metrics *observability.Metrics) *AnalysisTransformer {
	return &AnalysisTransformer{
		analysis: analysis,
		logger:   logger,
		metrics:  metrics,
		newID:    uuid.NewString,
	}
}

func (t *AnalysisTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.Result, error) {
	series, err := domain.ParseDataset(raw.Value)
	if err != nil {
		return domain.Result{}, err
	}

	result, err := domain.Analyze(series, t.analysis)
	if err != nil {
		return domain.Result{}, err
	}
	result.ID = t.newID()

	for _, w := range result.Warnings {
		t.logger.Warn("analysis warning",
			"station", result.Station,
			"kind", w.Kind,
			"message", w.Message,
			"offset", raw.Offset,
		)
		t.metrics.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	for _, ev := range result.Events {
		t.metrics.EventsDetected.WithLabelValues(ev.Parameter).Inc()
		if result.Category.Continuous() {
			t.metrics.EventDuration.WithLabelValues(ev.Parameter).Observe(ev.DurationHours)
		}
	}

	t.logger.Debug("dataset analyzed",
		"station", result.Station,
		"result_id", result.ID,
		"observations", len(series.Times),
		"events", len(result.Events),
	)
	return result, nil
}
