package power

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

type stubSource struct {
	calls        int
	observations []domain.YearlyObservation
	err          error
	healthErr    error
}

func (s *stubSource) Fetch(context.Context, domain.Location, domain.TargetDate, domain.Window) ([]domain.YearlyObservation, error) {
	s.calls++
	return s.observations, s.err
}

func (s *stubSource) Healthy() error { return s.healthErr }

var (
	cacheLoc    = domain.Location{Lat: 47.6062, Lon: -122.3321}
	cacheDate   = domain.TargetDate{Month: 7, Day: 15}
	cacheWindow = domain.Window{Years: 10, Days: 1}
)

func TestCachedSource_HitSkipsInner(t *testing.T) {
	inner := &stubSource{observations: []domain.YearlyObservation{{Year: 2024}}}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	first, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedSource_NearbyCoordinatesShareEntry(t *testing.T) {
	inner := &stubSource{observations: []domain.YearlyObservation{{Year: 2024}}}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := c.Fetch(context.Background(), domain.Location{Lat: 47.61, Lon: -122.33}, cacheDate, cacheWindow)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), domain.Location{Lat: 47.62, Lon: -122.34}, cacheDate, cacheWindow)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "coordinates rounding to the same grid cell share a cache entry")
}

func TestCachedSource_DistinctRequestsMiss(t *testing.T) {
	inner := &stubSource{observations: []domain.YearlyObservation{{Year: 2024}}}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), cacheLoc, domain.TargetDate{Month: 7, Day: 16}, cacheWindow)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), cacheLoc, cacheDate, domain.Window{Years: 5, Days: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedSource_TTLExpiry(t *testing.T) {
	inner := &stubSource{observations: []domain.YearlyObservation{{Year: 2024}}}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	clk := clockwork.NewFakeClock()
	c.SetClock(clk)

	_, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	clk.Advance(2 * time.Minute)
	_, err = c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entry refetches")
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &stubSource{err: domain.Errorf(domain.KindDataSourceUnavailable, "boom")}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.Error(t, err)

	inner.err = nil
	inner.observations = []domain.YearlyObservation{{Year: 2024}}
	observations, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	assert.Len(t, observations, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_LRUEviction(t *testing.T) {
	inner := &stubSource{observations: []domain.YearlyObservation{{Year: 2024}}}
	c := NewCachedSource(inner, 1, time.Hour, observability.NewMetricsForTesting())

	_, err := c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), domain.Location{Lat: 30, Lon: 30}, cacheDate, cacheWindow)
	require.NoError(t, err)

	// The first entry was evicted, so this misses again.
	_, err = c.Fetch(context.Background(), cacheLoc, cacheDate, cacheWindow)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedSource_HealthyForwards(t *testing.T) {
	inner := &stubSource{healthErr: domain.Errorf(domain.KindDataSourceUnavailable, "breaker open")}
	c := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())
	require.Error(t, c.Healthy())

	inner.healthErr = nil
	require.NoError(t, c.Healthy())
}
