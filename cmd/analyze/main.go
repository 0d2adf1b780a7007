// Command analyze runs a one-shot probability analysis from the command
// line and prints the report as JSON. It talks to the same archive the
// server does, without caching or the audit trail.
//
// Usage:
//
//	go run ./cmd/analyze \
//	  -lat 47.6062 -lon -122.3321 \
//	  -month 7 -day 15 \
//	  -conditions precipitation_gt_25,wind_speed_gt_10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/weather-odds/internal/adapter/power"
	"github.com/couchcryptid/weather-odds/internal/analysis"
	"github.com/couchcryptid/weather-odds/internal/config"
	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

func main() {
	lat := flag.Float64("lat", 0, "latitude in decimal degrees")
	lon := flag.Float64("lon", 0, "longitude in decimal degrees")
	month := flag.Int("month", 0, "target month (1-12)")
	day := flag.Int("day", 0, "target day of month")
	conditions := flag.String("conditions", "", "comma-separated condition tokens, e.g. precipitation_gt_25")
	years := flag.Int("years", 0, "lookback years (default from LOOKBACK_YEARS)")
	composites := flag.Bool("composites", false, "include heatwave and muggy-day conditions")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall analysis timeout")
	flag.Parse()

	if *conditions == "" || *month == 0 || *day == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*lat, *lon, *month, *day, *conditions, *years, *composites, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(lat, lon float64, month, day int, conditions string, years int, composites bool, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if years > 0 {
		cfg.LookbackYears = years
	}

	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetrics()

	client := power.NewClient(
		cfg.PowerBaseURL, cfg.PowerCommunity, cfg.PowerTimeout,
		cfg.PowerRetries, cfg.PowerFetchConcurrency,
		metrics, logger,
	)

	svc := analysis.NewService(client, nil, cfg.LookbackYears, domain.CompositeConfig{
		HeatwaveThresholdC: cfg.HeatwaveThresholdC,
		HeatwaveDays:       cfg.HeatwaveDays,
		MuggyTempC:         cfg.MuggyTempC,
		MuggyHumidityPct:   cfg.MuggyHumidityPct,
	}, metrics, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := svc.Analyze(ctx, analysis.Request{
		Location:          domain.Location{Lat: lat, Lon: lon},
		Date:              domain.TargetDate{Month: month, Day: day},
		RawConditions:     conditions,
		IncludeComposites: composites,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
