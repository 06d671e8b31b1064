package mock

import (
	"context"

	"github.com/akarpov/shelfwatch"
)

var _ shelfwatch.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of shelfwatch.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (r *RateLimiter) Wait(ctx context.Context, domain string) error {
	if r.WaitFn == nil {
		return nil
	}
	return r.WaitFn(ctx, domain)
}
