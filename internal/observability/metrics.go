package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the analysis service.
type Metrics struct {
	AnalysesTotal        *prometheus.CounterVec // labels: outcome={success,invalid,upstream_error,error}
	AnalysisDuration     prometheus.Histogram
	ConditionsPerRequest prometheus.Histogram

	// Upstream archive metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error}
	UpstreamDuration prometheus.Histogram
	UpstreamRetries  prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,expired}

	// Audit trail metrics.
	AuditPublished prometheus.Counter
	AuditErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_odds",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete analysis, including archive fetches.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ConditionsPerRequest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_odds",
			Name:      "conditions_per_request",
			Help:      "Number of parsed conditions per analysis request.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "upstream_requests_total",
			Help:      "Archive API requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_odds",
			Name:      "upstream_duration_seconds",
			Help:      "Archive API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "upstream_retries_total",
			Help:      "Archive API request attempts beyond the first.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "cache_lookups_total",
			Help:      "History cache lookups by result.",
		}, []string{"result"}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "audit_published_total",
			Help:      "Analysis reports published to the audit topic.",
		}),
		AuditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_odds",
			Name:      "audit_errors_total",
			Help:      "Failed audit publications.",
		}),
	}

	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.ConditionsPerRequest,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamRetries,
		m.CacheLookups,
		m.AuditPublished,
		m.AuditErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysesTotal:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_odds", Name: "analyses_total"}, []string{"outcome"}),
		AnalysisDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_odds", Name: "analysis_duration_seconds"}),
		ConditionsPerRequest: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_odds", Name: "conditions_per_request"}),
		UpstreamRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_odds", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_odds", Name: "upstream_duration_seconds"}),
		UpstreamRetries:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_odds", Name: "upstream_retries_total"}),
		CacheLookups:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_odds", Name: "cache_lookups_total"}, []string{"result"}),
		AuditPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_odds", Name: "audit_published_total"}),
		AuditErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_odds", Name: "audit_errors_total"}),
	}
}
