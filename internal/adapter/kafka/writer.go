package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/floreser-dashboard/internal/config"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

// EventTypeDatasetReloaded is the event_type header of every published event.
const EventTypeDatasetReloaded = "dataset.reloaded"

// Writer publishes dataset reload events to a Kafka topic.
// It implements refresh.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one event. Events for the same dataset path share a key.
func (w *Writer) Publish(ctx context.Context, event domain.DatasetEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dataset event: %w", err)
	}
	w.logger.Debug("dataset event published", "id", event.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DatasetEvent into a Kafka message.
func serializeToMessage(event domain.DatasetEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeDatasetReloaded)},
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "loaded_at", Value: []byte(event.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
