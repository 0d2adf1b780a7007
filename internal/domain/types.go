package domain

import (
	"context"
	"time"
)

// Location is a WGS-84 latitude/longitude coordinate pair, supplied per
// request and immutable.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TargetDate is a calendar month/day without a year. The same month/day is
// looked up across every year of the lookback window.
type TargetDate struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// InYear resolves the target date within a specific year. ok is false when
// the date does not exist in that year (Feb 29 outside leap years).
func (d TargetDate) InYear(year int) (time.Time, bool) {
	t := time.Date(year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != d.Month || t.Day() != d.Day {
		return time.Time{}, false
	}
	return t, true
}

// Variable names a daily weather quantity from the closed supported set.
type Variable string

const (
	VarPrecipitation    Variable = "precipitation"
	VarWindSpeed        Variable = "wind_speed"
	VarMaxTemperature   Variable = "max_temperature"
	VarMinTemperature   Variable = "min_temperature"
	VarRelativeHumidity Variable = "relative_humidity"
)

// Variables lists every supported variable. The adapter fetches all of them
// in its single upstream query so one fetch serves any condition mix.
func Variables() []Variable {
	return []Variable{
		VarPrecipitation,
		VarWindSpeed,
		VarMaxTemperature,
		VarMinTemperature,
		VarRelativeHumidity,
	}
}

// ParameterCode returns the NASA POWER parameter code for the variable.
func (v Variable) ParameterCode() string {
	switch v {
	case VarPrecipitation:
		return "PRECTOTCORR"
	case VarWindSpeed:
		return "WS10M"
	case VarMaxTemperature:
		return "T2M_MAX"
	case VarMinTemperature:
		return "T2M_MIN"
	case VarRelativeHumidity:
		return "RH2M"
	default:
		return ""
	}
}

// variableNames maps accepted spellings (canonical names plus the aliases
// used by the original web UI) to variables.
var variableNames = map[string]Variable{
	"precipitation":     VarPrecipitation,
	"wind_speed":        VarWindSpeed,
	"max_temperature":   VarMaxTemperature,
	"min_temperature":   VarMinTemperature,
	"relative_humidity": VarRelativeHumidity,
	"temperature":       VarMaxTemperature,
	"humidity":          VarRelativeHumidity,
}

// ParseVariable resolves a variable name or alias.
func ParseVariable(name string) (Variable, bool) {
	v, ok := variableNames[name]
	return v, ok
}

// Comparator relates a variable's value to a threshold.
type Comparator string

const (
	CmpGT Comparator = "gt"
	CmpLT Comparator = "lt"
	CmpGE Comparator = "ge"
	CmpLE Comparator = "le"
)

// ParseComparator resolves a comparator token.
func ParseComparator(s string) (Comparator, bool) {
	switch Comparator(s) {
	case CmpGT, CmpLT, CmpGE, CmpLE:
		return Comparator(s), true
	default:
		return "", false
	}
}

// Holds reports whether value relates to threshold under the comparator.
func (c Comparator) Holds(value, threshold float64) bool {
	switch c {
	case CmpGT:
		return value > threshold
	case CmpLT:
		return value < threshold
	case CmpGE:
		return value >= threshold
	case CmpLE:
		return value <= threshold
	default:
		return false
	}
}

// ConditionSpec is a parsed threshold predicate over one variable.
// Token preserves the caller's original spelling for echoing in results.
type ConditionSpec struct {
	Variable   Variable
	Comparator Comparator
	Threshold  float64
	Token      string
}

// DailyValues holds the variable values recorded for one calendar day.
// An absent key means the archive had no value for that variable/day.
type DailyValues map[Variable]float64

// YearlyObservation pairs a historical year with the daily records fetched
// for it. Days[0] is the target date; later entries are the consecutive
// following days, present only when a multi-day window was requested.
// An observation with empty Days means the year had no usable data at all
// (for example Feb 29 in a non-leap year).
type YearlyObservation struct {
	Year int
	Days []DailyValues
}

// Value returns the target-date value of a variable, if present.
func (o YearlyObservation) Value(v Variable) (float64, bool) {
	if len(o.Days) == 0 {
		return 0, false
	}
	val, ok := o.Days[0][v]
	return val, ok
}

// Window describes the span of historical data to fetch: how many past
// years, and how many consecutive days per year starting at the target
// date (Days > 1 only when multi-day composite conditions need it).
type Window struct {
	Years int
	Days  int
}

// YearRange returns the inclusive year span of the window, ending at the
// most recent fully elapsed year so partial-year data never skews results.
func (w Window) YearRange() (start, end int) {
	end = clock.Now().UTC().Year() - 1
	return end - w.Years + 1, end
}

// HistoricalSource fetches per-year daily observations for a location and
// target date. Implementations must return missing-value markers (absent
// map keys), never zeros, for values the archive did not report.
type HistoricalSource interface {
	Fetch(ctx context.Context, loc Location, date TargetDate, window Window) ([]YearlyObservation, error)
}

// ProbabilityResult reports one condition's empirical probability.
// Probability is nil when no year had a usable value (InsufficientData).
type ProbabilityResult struct {
	Condition        string   `json:"condition"`
	Probability      *float64 `json:"probability_percent"`
	ValidYears       int      `json:"valid_years"`
	HeldYears        int      `json:"held_years"`
	InsufficientData bool     `json:"insufficient_data"`
}

// AnalysisReport is the full response for one analysis request.
type AnalysisReport struct {
	Location      Location            `json:"location"`
	Date          TargetDate          `json:"date"`
	YearsAnalyzed int                 `json:"years_analyzed"`
	Results       []ProbabilityResult `json:"results"`

	GeneratedAt time.Time `json:"-"`
}

// NewAnalysisReport assembles a report and stamps it with the package clock.
func NewAnalysisReport(loc Location, date TargetDate, yearsAnalyzed int, results []ProbabilityResult) AnalysisReport {
	return AnalysisReport{
		Location:      loc,
		Date:          date,
		YearsAnalyzed: yearsAnalyzed,
		Results:       results,
		GeneratedAt:   clock.Now().UTC(),
	}
}
