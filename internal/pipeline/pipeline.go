package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
	"github.com/couchcryptid/wq-threshold-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw dataset messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer analyzes one raw dataset.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.Result, error)
}

// BatchLoader writes multiple analysis results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.Result) error
}

// Pipeline orchestrates the extract-analyze-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has loaded at least one result,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not analyzed any datasets yet")
	}
	return nil
}

// Ready reports whether at least one result has been loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.DatasetsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad analyzes each dataset in the batch, loads the results,
// and commits offsets. Returns the number of successfully loaded results and
// false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawMessage, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	outBatch := make([]domain.Result, 0, len(rawBatch))
	successfulRaws := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("analysis failed, skipping dataset",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		outBatch = append(outBatch, out)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ResultsProduced.Add(float64(len(outBatch)))

	events := 0
	for i := range outBatch {
		events += len(outBatch[i].Events)
	}
	p.logger.Info("batch analyzed", "datasets", len(outBatch), "events", events)

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
