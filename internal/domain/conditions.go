package domain

import (
	"strconv"
	"strings"
)

// conditionKey identifies a condition for deduplication. Two spellings of
// the same predicate (e.g. "temperature_gt_30" and "max_temperature_gt_30.0")
// collapse to the first occurrence.
type conditionKey struct {
	variable   Variable
	comparator Comparator
	threshold  float64
}

// ParseConditionList parses a comma-separated list of condition tokens.
// Any invalid token rejects the whole list, and the returned error names
// the offending token. Output order matches input order with duplicates
// removed.
func ParseConditionList(raw string) ([]ConditionSpec, error) {
	tokens := strings.Split(raw, ",")
	specs := make([]ConditionSpec, 0, len(tokens))
	seen := make(map[conditionKey]bool, len(tokens))

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		spec, err := parseConditionToken(token)
		if err != nil {
			return nil, err
		}
		key := conditionKey{spec.Variable, spec.Comparator, spec.Threshold}
		if seen[key] {
			continue
		}
		seen[key] = true
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, Errorf(KindInvalidConditionSpec, "conditions list is empty")
	}
	return specs, nil
}

// parseConditionToken parses "<variable>_<comparator>_<threshold>".
// Split from the right: variable names contain underscores (wind_speed),
// so the last field is the threshold and the one before it the comparator.
func parseConditionToken(token string) (ConditionSpec, error) {
	rest, thresholdStr, ok := cutLast(token)
	if !ok {
		return ConditionSpec{}, Errorf(KindInvalidConditionSpec, "malformed condition token %q", token)
	}
	name, cmpStr, ok := cutLast(rest)
	if !ok {
		return ConditionSpec{}, Errorf(KindInvalidConditionSpec, "malformed condition token %q", token)
	}

	variable, ok := ParseVariable(name)
	if !ok {
		return ConditionSpec{}, Errorf(KindInvalidConditionSpec, "unknown variable in condition token %q", token)
	}
	comparator, ok := ParseComparator(cmpStr)
	if !ok {
		return ConditionSpec{}, Errorf(KindInvalidConditionSpec, "unknown comparator in condition token %q", token)
	}
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return ConditionSpec{}, Errorf(KindInvalidConditionSpec, "unparsable threshold in condition token %q", token)
	}

	return ConditionSpec{
		Variable:   variable,
		Comparator: comparator,
		Threshold:  threshold,
		Token:      token,
	}, nil
}

// cutLast splits s at its last underscore.
func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndex(s, "_")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
