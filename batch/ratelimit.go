package batch

import (
	"context"
	"sync"

	"github.com/akarpov/shelfwatch"
	"golang.org/x/time/rate"
)

var _ shelfwatch.RateLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain request pacing using token buckets.
// Each domain gets its own limiter, so different marketplaces can be
// fetched in parallel while requests within one marketplace are spaced
// out.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per
// second per domain with no bursting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
