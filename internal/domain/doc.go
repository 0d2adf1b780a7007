// Package domain models historical weather condition analysis.
//
// # Data Source
//
// Daily weather observations come from the NASA POWER archive
// (https://power.larc.nasa.gov/api/temporal/daily/point), which reports
// gridded daily values decades back for any land coordinate. The adapter
// service issues one query per historical year for the requested month/day
// and hands this package a sequence of per-year observations.
//
// # POWER Data Conventions
//
// Parameter codes:
//
//	precipitation     → PRECTOTCORR  (mm/day, bias-corrected total)
//	wind_speed        → WS10M        (m/s at 10 m)
//	max_temperature   → T2M_MAX      (°C at 2 m)
//	min_temperature   → T2M_MIN      (°C at 2 m)
//	relative_humidity → RH2M         (% at 2 m)
//
// The archive marks unreported values with a fill sentinel (-999 by
// convention, echoed in the response header). Fill values are stripped by
// the adapter before they reach this package: a variable is either present
// with a real value or absent. Treating a fill value as "0 mm of rain"
// would bias every probability toward dry, so absence is modeled
// explicitly and never defaulted.
//
// # Condition Tokens
//
//	<variable>_<comparator>_<threshold>  →  e.g. "precipitation_gt_25"
//
// The variable name may itself contain underscores (wind_speed), so tokens
// are split from the right: the last field is the decimal threshold, the
// one before it the comparator (gt, lt, ge, le), and everything remaining
// the variable. "temperature" and "humidity" are accepted as aliases for
// max_temperature and relative_humidity. Anything outside the closed
// variable/comparator sets is rejected at parse time, not at evaluation
// time. Duplicate tokens collapse to their first occurrence.
//
// # Counting Rules
//
// For each condition, a year counts as valid only when the variable's
// value is present for the target date; the condition's probability is
// held/valid × 100, rounded to one decimal. A year missing the value is
// excluded from both counters, which keeps each condition's probability
// unbiased by that variable's own gaps even when different variables have
// different gaps across years. The year set itself is identical for every
// condition in a request. When no year is valid the probability is
// undefined (nil), never zero.
package domain
