package power

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-odds/internal/domain"
	"github.com/couchcryptid/weather-odds/internal/observability"
)

// CachedSource wraps a HistoricalSource with an in-memory TTL+LRU cache.
// The POWER archive rounds coordinates to a half-degree grid, so keys use
// one-decimal coordinates and nearby requests share an entry. Entries
// expire after the TTL so freshly published archive years appear without
// a restart.
type CachedSource struct {
	inner   domain.HistoricalSource
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner domain.HistoricalSource, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
	}
}

// SetClock swaps the expiry time source. For tests.
func (c *CachedSource) SetClock(clk clockwork.Clock) {
	c.clock = clk
}

func (c *CachedSource) Fetch(ctx context.Context, loc domain.Location, date domain.TargetDate, window domain.Window) ([]domain.YearlyObservation, error) {
	key := fmt.Sprintf("%.1f,%.1f|%02d-%02d|%dy%dd", loc.Lat, loc.Lon, date.Month, date.Day, window.Years, window.Days)

	now := c.clock.Now()
	if observations, ok := c.cache.get(key, now); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return observations, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	observations, err := c.inner.Fetch(ctx, loc, date, window)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, observations, now.Add(c.ttl))
	return observations, nil
}

// Healthy forwards readiness checks to the wrapped source when it reports them.
func (c *CachedSource) Healthy() error {
	if h, ok := c.inner.(interface{ Healthy() error }); ok {
		return h.Healthy()
	}
	return nil
}

// lruCache is a thread-safe LRU cache of fetched histories with per-entry
// expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     []domain.YearlyObservation
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) ([]domain.YearlyObservation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.YearlyObservation, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
