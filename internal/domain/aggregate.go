package domain

import (
	"fmt"
	"math"
)

// Aggregate evaluates each condition against every year's target-date
// observation. A year is skipped for a condition when the variable's value
// is missing: it contributes to neither counter, so each condition's
// denominator reflects only the years that actually had data for it.
// Result order matches condition order.
func Aggregate(observations []YearlyObservation, specs []ConditionSpec) []ProbabilityResult {
	results := make([]ProbabilityResult, 0, len(specs))
	for _, spec := range specs {
		var held, valid int
		for _, obs := range observations {
			value, ok := obs.Value(spec.Variable)
			if !ok {
				continue
			}
			valid++
			if spec.Comparator.Holds(value, spec.Threshold) {
				held++
			}
		}
		results = append(results, newResult(spec.Token, held, valid))
	}
	return results
}

// CompositeConfig parameterizes the built-in multi-variable conditions.
type CompositeConfig struct {
	HeatwaveThresholdC float64 // minimum daily max temperature
	HeatwaveDays       int     // consecutive days required
	MuggyTempC         float64 // minimum max temperature for a muggy day
	MuggyHumidityPct   float64 // minimum relative humidity for a muggy day
}

// AggregateComposites evaluates the heatwave and muggy-day composite
// conditions. Both follow the same skip-on-missing law as simple
// conditions: a year is valid for the heatwave only when the temperature
// is present on every day of the run, and valid for the muggy day only
// when both temperature and humidity are present on the target date.
func AggregateComposites(observations []YearlyObservation, cfg CompositeConfig) []ProbabilityResult {
	var heatHeld, heatValid, muggyHeld, muggyValid int

	for _, obs := range observations {
		if run, ok := temperatureRun(obs, cfg.HeatwaveDays); ok {
			heatValid++
			if minOf(run) > cfg.HeatwaveThresholdC {
				heatHeld++
			}
		}

		temp, tempOK := obs.Value(VarMaxTemperature)
		humidity, humOK := obs.Value(VarRelativeHumidity)
		if tempOK && humOK {
			muggyValid++
			if temp > cfg.MuggyTempC && humidity > cfg.MuggyHumidityPct {
				muggyHeld++
			}
		}
	}

	heatToken := fmt.Sprintf("heatwave (%d consecutive days > %g°C)", cfg.HeatwaveDays, cfg.HeatwaveThresholdC)
	muggyToken := fmt.Sprintf("muggy_day (temp > %g°C and humidity > %g%%)", cfg.MuggyTempC, cfg.MuggyHumidityPct)

	return []ProbabilityResult{
		newResult(heatToken, heatHeld, heatValid),
		newResult(muggyToken, muggyHeld, muggyValid),
	}
}

// temperatureRun extracts days consecutive max-temperature values starting
// at the target date. ok is false when any day's value is missing.
func temperatureRun(obs YearlyObservation, days int) ([]float64, bool) {
	if days < 1 || len(obs.Days) < days {
		return nil, false
	}
	run := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		v, ok := obs.Days[i][VarMaxTemperature]
		if !ok {
			return nil, false
		}
		run = append(run, v)
	}
	return run, true
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// newResult computes held/valid as a percentage rounded to one decimal.
// valid == 0 means the probability is undefined, reported as nil rather
// than zero so "no data" can never read as "never happens".
func newResult(token string, held, valid int) ProbabilityResult {
	if valid == 0 {
		return ProbabilityResult{Condition: token, InsufficientData: true}
	}
	p := math.Round(float64(held)/float64(valid)*1000) / 10
	return ProbabilityResult{
		Condition:   token,
		Probability: &p,
		ValidYears:  valid,
		HeldYears:   held,
	}
}
