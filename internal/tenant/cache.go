// internal/tenant/cache.go
//
// Lazy hostname → tenant cache.
//
// Context
// -------
// Request handlers resolve tenants by Host header on every hit, so the
// cache sits between the router and the repository.  A tenant is loaded on
// first sight of its hostname, shared by every later request, and evicted
// by the background loop on idle TTL or LRU pressure (see evictor.go).
// Loads funnel through singleflight so a burst of requests for a cold
// hostname issues exactly one query.
//
// Notes
// -----
//   - Hostnames are normalized before lookup; "www.Example.com" and
//     "example.com" share one cache slot.
//   - Entries are immutable *Record values; alias-state changes made by
//     provisioning show up after the entry ages out.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/pressroom/internal/hostname"
	"github.com/yanizio/pressroom/internal/metrics"
)

// Static defaults.  Override via config if desired.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 100
	EvictInterval = 5 * time.Minute
)

type entry struct {
	rec      *Record
	lastSeen int64 // UnixNano
}

// Cache lazily loads tenants, stores them in a sync.Map, and evicts them on
// idle TTL or LRU pressure.
type Cache struct {
	repo        *Repository
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	idleTTL     time.Duration
	maxEntries  int
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(repo *Repository, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		repo:       repo,
		done:       make(chan struct{}),
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the tenant for host, loading it on demand.
func (c *Cache) Get(ctx context.Context, host string) (*Record, error) {
	key := hostname.Normalize(host)

	if v, ok := c.m.Load(key); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.rec, nil
	}

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(key); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.rec, nil
		}
		rec, err := c.repo.ByHost(ctx, key)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			return nil, err
		}
		ent := &entry{
			rec:      rec,
			lastSeen: time.Now().UnixNano(),
		}
		c.m.Store(key, ent)
		metrics.TenantLoadTotal.Inc()
		metrics.ActiveTenants.Inc()
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// Invalidate drops a hostname from the cache, forcing the next Get to hit
// the repository.  Provisioning calls this after mutating alias state.
func (c *Cache) Invalidate(host string) {
	key := hostname.Normalize(host)
	if _, ok := c.m.LoadAndDelete(key); ok {
		metrics.ActiveTenants.Dec()
	}
}

// Close stops the background evictor.  Ticker.Stop never closes the ticker
// channel, so the loop is released through done instead.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
	})
}
