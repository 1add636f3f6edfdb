package boundary

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

// CachedFetcher wraps a Fetcher and keeps the last successful payload for a
// fixed TTL. Concurrent misses share one upstream request. A TTL of zero
// disables caching.
type CachedFetcher struct {
	inner   Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu        sync.RWMutex
	body      []byte
	fetchedAt time.Time

	group singleflight.Group
}

// NewCachedFetcher creates a TTL cache decorator around a fetcher.
func NewCachedFetcher(inner Fetcher, ttl time.Duration, clk clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &CachedFetcher{
		inner:   inner,
		ttl:     ttl,
		clock:   clk,
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if c.ttl <= 0 {
		return c.inner.Fetch(ctx)
	}
	if body, ok := c.get(); ok {
		c.metrics.BoundaryCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.BoundaryCache.WithLabelValues("miss").Inc()

	// The shared fetch outlives any one caller; the inner client's timeout
	// bounds it. A caller that leaves early stops waiting but does not cancel
	// it for the others.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("boundary", func() (any, error) {
		body, err := c.inner.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.put(body)
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *CachedFetcher) get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.body == nil || c.clock.Since(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.body, true
}

func (c *CachedFetcher) put(body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.body = body
	c.fetchedAt = c.clock.Now()
}
