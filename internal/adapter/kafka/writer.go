// Package kafka publishes finalized region records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/divi-occupancy-etl/internal/config"
	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces region-day messages to the configured topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "kafka" }

// Load publishes every finalized region record of the run.
func (w *Writer) Load(ctx context.Context, agg domain.Aggregate) error {
	return w.LoadBatch(ctx, domain.Flatten(agg.Regions))
}

// LoadBatch serializes and publishes region records in a single
// WriteMessages call. Records of one region share a partition.
func (w *Writer) LoadBatch(ctx context.Context, days []domain.RegionDay) error {
	if len(days) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(days))
	for i := range days {
		msg, err := serializeToMessage(days[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish region records: %w", err)
	}
	w.metrics.RecordsPublished.Add(float64(len(msgs)))
	w.logger.Info("region records published", "records", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey is the key of a region record: "<region>|<date>".
func MessageKey(region, date string) string {
	return region + "|" + date
}

// serializeToMessage marshals a RegionDay into a Kafka message.
func serializeToMessage(day domain.RegionDay) (kafkago.Message, error) {
	data, err := json.Marshal(day)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(day.Region, day.Date)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(day.Region)},
			{Key: "date", Value: []byte(day.Date)},
		},
	}, nil
}
