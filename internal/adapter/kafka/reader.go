package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wq-threshold-etl/internal/config"
	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// Reader consumes station datasets from a Kafka topic with manual commits.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 50e6, // a multi-year 15 minute dataset runs to tens of MB
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks for the first message, then keeps fetching until the
// batch is full or the flush interval elapses.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []domain.RawMessage{r.toRaw(first)}

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if ctx.Err() != nil {
				return batch, nil
			}
			return batch, err
		}
		batch = append(batch, r.toRaw(msg))
	}

	r.logger.Debug("batch extracted", "size", len(batch))
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) toRaw(msg kafkago.Message) domain.RawMessage {
	raw := mapMessageToRawMessage(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawMessage copies a Kafka message into the domain form.
func mapMessageToRawMessage(msg kafkago.Message) domain.RawMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawMessage{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
