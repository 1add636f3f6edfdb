package kafka

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floreser-dashboard/internal/config"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	loaded := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.DatasetEvent{
		ID:          "evt-1",
		Path:        "dataset/floreser.csv",
		Records:     3,
		States:      2,
		MinYear:     2020,
		MaxYear:     2021,
		RowWarnings: 1,
		ModifiedAt:  loaded.Add(-time.Hour),
		LoadedAt:    loaded,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("dataset/floreser.csv"), msg.Key)
	assert.Contains(t, string(msg.Value), `"min_year":2020`)
	assert.Contains(t, string(msg.Value), `"row_warnings":1`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(EventTypeDatasetReloaded), msg.Headers[0].Value)
	assert.Equal(t, "event_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("evt-1"), msg.Headers[1].Value)
	assert.Equal(t, "loaded_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(loaded.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.DatasetEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.True(t, event.LoadedAt.Equal(decoded.LoadedAt))
}

func TestNewWriter_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "floreser-dataset-events"}
	w := NewWriter(cfg, nil)
	defer w.Close()

	assert.Equal(t, "floreser-dataset-events", w.writer.Topic)
	assert.Equal(t, "localhost:9092", w.writer.Addr.String())
}
