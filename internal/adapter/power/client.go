// Package power implements domain.HistoricalSource against the NASA POWER
// daily point API. One upstream request covers one historical year; the
// client fans out across the lookback window with bounded concurrency and
// wraps each request in retries and a circuit breaker.
package power

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

// defaultFillValue marks missing data in POWER responses when the header
// does not say otherwise.
const defaultFillValue = -999.0

// Client fetches daily weather history from the POWER archive.
type Client struct {
	baseURL     string
	community   string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retries     int
	concurrency int
	minWait     time.Duration
	maxWait     time.Duration
	sleepFn     func(time.Duration)
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSleepFunc overrides the sleep between retries. For tests.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleepFn = fn }
}

// NewClient creates a POWER archive client. retries is the number of
// re-attempts after the first request; concurrency bounds the per-year
// fan-out of a single Fetch.
func NewClient(baseURL, community string, timeout time.Duration, retries, concurrency int, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		community: community,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "power-archive",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		retries:     retries,
		concurrency: concurrency,
		minWait:     500 * time.Millisecond,
		maxWait:     10 * time.Second,
		sleepFn:     time.Sleep,
		metrics:     metrics,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves one observation per year of the window. Years where the
// target date does not exist (Feb 29 outside leap years) come back with
// empty Days. Any upstream failure aborts the whole fetch; partial history
// would silently skew the probabilities.
func (c *Client) Fetch(ctx context.Context, loc domain.Location, date domain.TargetDate, window domain.Window) ([]domain.YearlyObservation, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := date.Validate(); err != nil {
		return nil, err
	}
	if window.Days < 1 {
		window.Days = 1
	}

	startYear, endYear := window.YearRange()
	observations := make([]domain.YearlyObservation, endYear-startYear+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for year := startYear; year <= endYear; year++ {
		g.Go(func() error {
			obs, err := c.fetchYear(gctx, loc, date, year, window.Days)
			if err != nil {
				return err
			}
			observations[year-startYear] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return observations, nil
}

// Healthy reports readiness. It fails while the circuit breaker is open.
func (c *Client) Healthy() error {
	if c.breaker.State() == gobreaker.StateOpen {
		return domain.Errorf(domain.KindDataSourceUnavailable, "archive circuit breaker is open")
	}
	return nil
}

func (c *Client) fetchYear(ctx context.Context, loc domain.Location, date domain.TargetDate, year, days int) (domain.YearlyObservation, error) {
	start, ok := date.InYear(year)
	if !ok {
		return domain.YearlyObservation{Year: year}, nil
	}
	end := start.AddDate(0, 0, days-1)

	resp, err := c.do(ctx, c.buildURL(loc, start, end))
	if err != nil {
		return domain.YearlyObservation{}, err
	}

	obs := domain.YearlyObservation{Year: year, Days: make([]domain.DailyValues, days)}
	fill := resp.Header.FillValue
	if fill == 0 {
		fill = defaultFillValue
	}
	for i := range obs.Days {
		obs.Days[i] = domain.DailyValues{}
		key := start.AddDate(0, 0, i).Format("20060102")
		for _, v := range domain.Variables() {
			value, present := resp.Properties.Parameter[v.ParameterCode()][key]
			if !present || value == fill {
				continue
			}
			obs.Days[i][v] = value
		}
	}
	return obs, nil
}

func (c *Client) buildURL(loc domain.Location, start, end time.Time) string {
	codes := make([]string, 0, len(domain.Variables()))
	for _, v := range domain.Variables() {
		codes = append(codes, v.ParameterCode())
	}
	sort.Strings(codes)

	params := url.Values{
		"parameters": {strings.Join(codes, ",")},
		"community":  {c.community},
		"longitude":  {strconv.FormatFloat(loc.Lon, 'f', -1, 64)},
		"latitude":   {strconv.FormatFloat(loc.Lat, 'f', -1, 64)},
		"start":      {start.Format("20060102")},
		"end":        {end.Format("20060102")},
		"format":     {"JSON"},
	}
	return c.baseURL + "?" + params.Encode()
}

// do runs one archive request with circuit breaking and retries on 429/5xx,
// decoding the body on success.
func (c *Client) do(ctx context.Context, fullURL string) (*response, error) {
	var lastStatus int
	var lastErr error

	maxAttempts := 1 + c.retries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.metrics.UpstreamRetries.Inc()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, domain.NewError(domain.KindDataSourceUnavailable, "create archive request", err)
		}

		began := time.Now()
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("archive returned %d", r.StatusCode)
			}
			return r, nil
		})
		c.metrics.UpstreamDuration.Observe(time.Since(began).Seconds())

		if err == nil {
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				resp.Body.Close()
				c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
				return nil, domain.Errorf(domain.KindDataSourceUnavailable, "archive returned %d: %s", resp.StatusCode, body)
			}
			decoded, decErr := decodeResponse(resp.Body)
			resp.Body.Close()
			if decErr != nil {
				c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
				return nil, domain.NewError(domain.KindDataSourceUnavailable, "decode archive response", decErr)
			}
			c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
			return decoded, nil
		}

		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		lastErr = err
		var retryAfter string
		if resp != nil {
			lastStatus = resp.StatusCode
			retryAfter = resp.Header.Get("Retry-After")
			resp.Body.Close()
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt < maxAttempts-1 {
			c.sleepFn(c.backoff(attempt, retryAfter))
		}
	}

	if lastStatus != 0 {
		c.logger.Warn("archive request failed", "status", lastStatus, "error", lastErr)
		return nil, domain.NewError(domain.KindDataSourceUnavailable, fmt.Sprintf("archive returned %d after retries", lastStatus), lastErr)
	}
	return nil, domain.NewError(domain.KindDataSourceUnavailable, "archive request failed", lastErr)
}

// backoff waits per Retry-After when the archive sent one, otherwise uses
// exponential backoff with full jitter clamped to [minWait, maxWait].
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return min(time.Duration(seconds)*time.Second, c.maxWait)
		}
		if t, err := http.ParseTime(retryAfter); err == nil {
			if wait := time.Until(t); wait > 0 {
				return min(wait, c.maxWait)
			}
			return c.minWait
		}
	}

	base := math.Min(float64(c.minWait)*math.Pow(2, float64(attempt)), float64(c.maxWait))
	if base <= float64(c.minWait) {
		return c.minWait
	}
	return time.Duration(float64(c.minWait) + rand.Float64()*(base-float64(c.minWait)))
}

func decodeResponse(r io.Reader) (*response, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Properties.Parameter == nil {
		return nil, errors.New("response has no parameter data")
	}
	return &resp, nil
}

// POWER API response types. Parameter maps a POWER parameter code to its
// per-day values keyed by YYYYMMDD.

type response struct {
	Header     header     `json:"header"`
	Properties properties `json:"properties"`
}

type header struct {
	FillValue float64 `json:"fill_value"`
}

type properties struct {
	Parameter map[string]map[string]float64 `json:"parameter"`
}
