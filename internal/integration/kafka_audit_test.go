//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/weather-odds/internal/adapter/kafka"
	"github.com/couchcryptid/weather-odds/internal/config"
	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

const testAuditTopic = "test-audit"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-broker Kafka in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestAuditRoundTrip publishes an analysis report through the Kafka writer
// and reads it back off the audit topic.
func TestAuditRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAuditTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaAuditTopic: testAuditTopic,
	}

	writer := kafkaadapter.NewWriter(cfg, observability.NewMetricsForTesting(), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := 30.0
	generated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := domain.AnalysisReport{
		Location:      domain.Location{Lat: 47.6062, Lon: -122.3321},
		Date:          domain.TargetDate{Month: 7, Day: 15},
		YearsAnalyzed: 10,
		Results: []domain.ProbabilityResult{
			{Condition: "precipitation_gt_25", Probability: &p, ValidYears: 10, HeldYears: 3},
		},
		GeneratedAt: generated,
	}

	require.NoError(t, writer.PublishReport(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAuditTopic,
		GroupID:     fmt.Sprintf("test-audit-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from audit topic")

	assert.Equal(t, "47.6062,-122.3321|07-15", string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "10", headers["years_analyzed"])
	assert.Equal(t, "2025-06-01T12:00:00Z", headers["generated_at"])

	var got domain.AnalysisReport
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, report.Location, got.Location)
	assert.Equal(t, report.Date, got.Date)
	assert.Equal(t, report.YearsAnalyzed, got.YearsAnalyzed)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "precipitation_gt_25", got.Results[0].Condition)
	assert.Equal(t, 30.0, *got.Results[0].Probability)
	assert.True(t, got.GeneratedAt.IsZero(), "timestamp travels only in the header")
}
