// Package kafka publishes completed analyses to the audit topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-odds/internal/config"
	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

// Writer produces audit records to a Kafka topic.
// It implements analysis.AuditPublisher.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// PublishReport serializes and publishes one analysis report.
func (w *Writer) PublishReport(ctx context.Context, report domain.AnalysisReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		w.metrics.AuditErrors.Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.AuditErrors.Inc()
		return fmt.Errorf("write audit message: %w", err)
	}
	w.metrics.AuditPublished.Inc()
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AnalysisReport into a Kafka message. The
// key groups reports for the same place and date onto one partition.
func serializeToMessage(report domain.AnalysisReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis report: %w", err)
	}
	key := fmt.Sprintf("%.4f,%.4f|%02d-%02d",
		report.Location.Lat, report.Location.Lon,
		report.Date.Month, report.Date.Day)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "years_analyzed", Value: []byte(fmt.Sprintf("%d", report.YearsAnalyzed))},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
