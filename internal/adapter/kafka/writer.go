package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wq-threshold-etl/internal/config"
	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// Writer produces analysis results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   50e6,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes results in a single WriteMessages call.
// Results are keyed by station so one station's results stay ordered on a
// single partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.Result) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Result into a Kafka message.
func serializeToMessage(result domain.Result) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "result_id", Value: []byte(result.ID)},
			{Key: "category", Value: []byte(result.Category)},
			{Key: "event_count", Value: []byte(strconv.Itoa(len(result.Events)))},
			{Key: "analyzed_at", Value: []byte(result.AnalyzedAt.Format(time.RFC3339))},
		},
	}, nil
}
