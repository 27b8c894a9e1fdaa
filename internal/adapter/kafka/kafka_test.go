package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("gndbhwq"),
		Value:     []byte(`{"station":"gndbhwq"}`),
		Topic:     "raw-swmp-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("cdmo")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("gndbhwq"), raw.Key)
	assert.JSONEq(t, `{"station":"gndbhwq"}`, string(raw.Value))
	assert.Equal(t, "raw-swmp-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "cdmo", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	analyzed := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	start := time.Date(2016, 7, 1, 2, 0, 0, 0, time.UTC)
	result := domain.Result{
		ID:       "result-1",
		Station:  "gndbhwq",
		Category: domain.CategoryWaterQuality,
		Events: []domain.Event{{
			ID:            "do_mgl-abc",
			Parameter:     "do_mgl",
			Start:         start,
			End:           start.Add(3 * time.Hour),
			Duration:      3 * time.Hour,
			DurationHours: 3,
		}},
		AnalyzedAt: analyzed,
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("gndbhwq"), msg.Key)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "result_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("result-1"), msg.Headers[0].Value)
	assert.Equal(t, []byte("wq"), msg.Headers[1].Value)
	assert.Equal(t, []byte("1"), msg.Headers[2].Value)
	assert.Equal(t, []byte(analyzed.Format(time.RFC3339)), msg.Headers[3].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	events := decoded["events"].([]any)
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, 3.0, ev["duration_hours"])
	assert.NotContains(t, ev, "Duration")
}
