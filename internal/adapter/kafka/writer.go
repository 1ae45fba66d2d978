// Package kafka publishes curated occurrence records to a Kafka topic for
// downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/gbif-curation-service/internal/config"
	"github.com/couchcryptid/gbif-curation-service/internal/domain"
)

// Writer produces curated records to the configured Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the curated-records topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCuratedTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCurated serializes and publishes curated records in a single
// WriteMessages call.
func (w *Writer) PublishCurated(ctx context.Context, records []domain.CuratedRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
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

// serializeToMessage marshals a curated record into a Kafka message keyed by
// record ID, so downstream upserts stay idempotent across replays.
func serializeToMessage(rec domain.CuratedRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize curated record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.RecordID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "data_source", Value: []byte(rec.DataSource)},
			{Key: "processed_at", Value: []byte(rec.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
