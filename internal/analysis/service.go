// Package analysis orchestrates a probability analysis: validate the
// request, parse conditions, fetch history, aggregate, and publish the
// audit record.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

// Request carries one analysis request through the service.
type Request struct {
	Location          domain.Location
	Date              domain.TargetDate
	RawConditions     string
	IncludeComposites bool
}

// AuditPublisher records completed analyses on the audit trail.
type AuditPublisher interface {
	PublishReport(ctx context.Context, report domain.AnalysisReport) error
}

// HealthReporter is implemented by sources that can report readiness.
type HealthReporter interface {
	Healthy() error
}

// Service runs analyses against a historical source.
type Service struct {
	source        domain.HistoricalSource
	audit         AuditPublisher // nil when the audit trail is disabled
	lookbackYears int
	composites    domain.CompositeConfig
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewService creates the analysis orchestrator. audit may be nil.
func NewService(source domain.HistoricalSource, audit AuditPublisher, lookbackYears int, composites domain.CompositeConfig, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		source:        source,
		audit:         audit,
		lookbackYears: lookbackYears,
		composites:    composites,
		metrics:       metrics,
		logger:        logger,
	}
}

// Analyze validates the request, fetches the lookback window once, and
// evaluates every condition against it. All conditions see the identical
// set of years.
func (s *Service) Analyze(ctx context.Context, req Request) (domain.AnalysisReport, error) {
	began := time.Now()

	report, err := s.analyze(ctx, req)
	s.metrics.AnalysisDuration.Observe(time.Since(began).Seconds())
	s.metrics.AnalysesTotal.WithLabelValues(outcomeFor(err)).Inc()
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	s.publishAudit(ctx, report)
	return report, nil
}

func (s *Service) analyze(ctx context.Context, req Request) (domain.AnalysisReport, error) {
	if err := req.Location.Validate(); err != nil {
		return domain.AnalysisReport{}, err
	}
	if err := req.Date.Validate(); err != nil {
		return domain.AnalysisReport{}, err
	}
	specs, err := domain.ParseConditionList(req.RawConditions)
	if err != nil {
		return domain.AnalysisReport{}, err
	}
	s.metrics.ConditionsPerRequest.Observe(float64(len(specs)))

	window := domain.Window{Years: s.lookbackYears, Days: 1}
	if req.IncludeComposites && s.composites.HeatwaveDays > window.Days {
		window.Days = s.composites.HeatwaveDays
	}

	observations, err := s.source.Fetch(ctx, req.Location, req.Date, window)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewError(domain.KindAnalysisFailed, "fetch history", err)
		}
		return domain.AnalysisReport{}, err
	}

	results := domain.Aggregate(observations, specs)
	if req.IncludeComposites {
		results = append(results, domain.AggregateComposites(observations, s.composites)...)
	}

	return domain.NewAnalysisReport(req.Location, req.Date, s.lookbackYears, results), nil
}

// publishAudit is best effort. A dead broker must never fail an analysis
// that already succeeded.
func (s *Service) publishAudit(ctx context.Context, report domain.AnalysisReport) {
	if s.audit == nil {
		return
	}
	if err := s.audit.PublishReport(ctx, report); err != nil {
		s.logger.Warn("audit publish failed", "error", err)
	}
}

// CheckReadiness reports whether the service can currently reach its
// historical source.
func (s *Service) CheckReadiness(_ context.Context) error {
	if h, ok := s.source.(HealthReporter); ok {
		return h.Healthy()
	}
	return nil
}

func outcomeFor(err error) string {
	switch domain.KindOf(err) {
	case "":
		if err != nil {
			return "error"
		}
		return "success"
	case domain.KindInvalidLocation, domain.KindInvalidDate, domain.KindInvalidConditionSpec:
		return "invalid"
	case domain.KindDataSourceUnavailable:
		return "upstream_error"
	default:
		return "error"
	}
}
