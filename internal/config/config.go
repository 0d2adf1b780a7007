package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NASA POWER archive configuration.
	PowerBaseURL          string
	PowerCommunity        string
	PowerTimeout          time.Duration
	PowerRetries          int
	PowerFetchConcurrency int
	LookbackYears         int

	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	// Thresholds for the built-in composite conditions.
	HeatwaveThresholdC float64
	HeatwaveDays       int
	MuggyTempC         float64
	MuggyHumidityPct   float64

	// Kafka audit trail configuration.
	KafkaBrokers    []string
	KafkaAuditTopic string
	AuditEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	powerTimeout, err := parseDuration("POWER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	powerRetries, err := parseIntRange("POWER_RETRIES", 3, 0, 10)
	if err != nil {
		return nil, err
	}

	fetchConcurrency, err := parseIntRange("POWER_FETCH_CONCURRENCY", 4, 1, 32)
	if err != nil {
		return nil, err
	}

	lookbackYears, err := parseIntRange("LOOKBACK_YEARS", 10, 1, 40)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseIntRange("CACHE_SIZE", 512, 1, 100000)
	if err != nil {
		return nil, err
	}

	heatwaveDays, err := parseIntRange("HEATWAVE_DAYS", 3, 1, 14)
	if err != nil {
		return nil, err
	}

	heatwaveThreshold, err := parseFloat("HEATWAVE_THRESHOLD_C", 40)
	if err != nil {
		return nil, err
	}
	muggyTemp, err := parseFloat("MUGGY_TEMP_C", 32)
	if err != nil {
		return nil, err
	}
	muggyHumidity, err := parseFloat("MUGGY_HUMIDITY_PCT", 70)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PowerBaseURL:          envOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/daily/point"),
		PowerCommunity:        envOrDefault("POWER_COMMUNITY", "RE"),
		PowerTimeout:          powerTimeout,
		PowerRetries:          powerRetries,
		PowerFetchConcurrency: fetchConcurrency,
		LookbackYears:         lookbackYears,

		CacheEnabled: envOrDefault("CACHE_ENABLED", "true") == "true",
		CacheSize:    cacheSize,
		CacheTTL:     cacheTTL,

		HeatwaveThresholdC: heatwaveThreshold,
		HeatwaveDays:       heatwaveDays,
		MuggyTempC:         muggyTemp,
		MuggyHumidityPct:   muggyHumidity,

		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", "weather-odds-audit"),
		AuditEnabled:    os.Getenv("KAFKA_AUDIT_ENABLED") == "true",
	}

	if cfg.PowerBaseURL == "" {
		return nil, fmt.Errorf("POWER_BASE_URL is required")
	}
	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_AUDIT_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.AuditEnabled && cfg.KafkaAuditTopic == "" {
		return nil, fmt.Errorf("KAFKA_AUDIT_ENABLED is true but KAFKA_AUDIT_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntRange(key string, fallback, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, min, max)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
