package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-odds/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-odds/internal/adapter/kafka"
	"github.com/couchcryptid/weather-odds/internal/adapter/power"
	"github.com/couchcryptid/weather-odds/internal/analysis"
	"github.com/couchcryptid/weather-odds/internal/config"
	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := power.NewClient(
		cfg.PowerBaseURL, cfg.PowerCommunity, cfg.PowerTimeout,
		cfg.PowerRetries, cfg.PowerFetchConcurrency,
		metrics, logger,
	)
	var source domain.HistoricalSource = client
	if cfg.CacheEnabled {
		source = power.NewCachedSource(client, cfg.CacheSize, cfg.CacheTTL, metrics)
		logger.Info("history cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	// Audit trail is feature-flagged via KAFKA_AUDIT_ENABLED.
	var audit analysis.AuditPublisher
	var auditWriter *kafkaadapter.Writer
	if cfg.AuditEnabled {
		auditWriter = kafkaadapter.NewWriter(cfg, metrics, logger)
		audit = auditWriter
		logger.Info("kafka audit trail enabled", "topic", cfg.KafkaAuditTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka audit trail disabled")
	}

	svc := analysis.NewService(source, audit, cfg.LookbackYears, domain.CompositeConfig{
		HeatwaveThresholdC: cfg.HeatwaveThresholdC,
		HeatwaveDays:       cfg.HeatwaveDays,
		MuggyTempC:         cfg.MuggyTempC,
		MuggyHumidityPct:   cfg.MuggyHumidityPct,
	}, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
