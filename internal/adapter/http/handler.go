package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/weather-odds/internal/analysis"
	"github.com/couchcryptid/weather-odds/internal/domain"
)

// errorResponse is the JSON body for all non-2xx analysis responses.
type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// handleAnalyze answers GET /analyze?lat=..&lon=..&month=..&day=..&conditions=..
// with an optional composites=true to include the built-in multi-variable
// conditions.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseAnalyzeRequest(r)
	if err == nil {
		var report domain.AnalysisReport
		report, err = s.analyzer.Analyze(r.Context(), req)
		if err == nil {
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	kind := domain.KindOf(err)
	s.logger.Warn("analyze request failed", "kind", string(kind), "error", err)
	writeJSON(w, statusFor(kind, err), errorResponse{
		ErrorKind: string(kind),
		Message:   err.Error(),
	})
}

func parseAnalyzeRequest(r *http.Request) (analysis.Request, error) {
	q := r.URL.Query()

	lat, err := parseCoord(q.Get("lat"), "lat")
	if err != nil {
		return analysis.Request{}, err
	}
	lon, err := parseCoord(q.Get("lon"), "lon")
	if err != nil {
		return analysis.Request{}, err
	}

	month, err := parseDatePart(q.Get("month"), "month")
	if err != nil {
		return analysis.Request{}, err
	}
	day, err := parseDatePart(q.Get("day"), "day")
	if err != nil {
		return analysis.Request{}, err
	}

	conditions := q.Get("conditions")
	if conditions == "" {
		return analysis.Request{}, domain.Errorf(domain.KindInvalidConditionSpec, "conditions parameter is required")
	}

	return analysis.Request{
		Location:          domain.Location{Lat: lat, Lon: lon},
		Date:              domain.TargetDate{Month: month, Day: day},
		RawConditions:     conditions,
		IncludeComposites: q.Get("composites") == "true",
	}, nil
}

func parseCoord(s, name string) (float64, error) {
	if s == "" {
		return 0, domain.Errorf(domain.KindInvalidLocation, "%s parameter is required", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.Errorf(domain.KindInvalidLocation, "%s %q is not a number", name, s)
	}
	return v, nil
}

func parseDatePart(s, name string) (int, error) {
	if s == "" {
		return 0, domain.Errorf(domain.KindInvalidDate, "%s parameter is required", name)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Errorf(domain.KindInvalidDate, "%s %q is not an integer", name, s)
	}
	return v, nil
}

// statusFor maps error kinds to HTTP statuses. An upstream failure caused
// by a deadline reads as a gateway timeout rather than a bad gateway.
func statusFor(kind domain.Kind, err error) int {
	switch kind {
	case domain.KindInvalidLocation, domain.KindInvalidDate, domain.KindInvalidConditionSpec:
		return http.StatusBadRequest
	case domain.KindDataSourceUnavailable:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
