package mock

import (
	"context"

	"github.com/akarpov/shelfwatch"
)

var _ shelfwatch.RedirectResolver = (*RedirectResolver)(nil)

// RedirectResolver is a mock implementation of shelfwatch.RedirectResolver.
type RedirectResolver struct {
	ResolveFn func(ctx context.Context, url string) (string, error)
	CloseFn   func() error
}

func (r *RedirectResolver) Resolve(ctx context.Context, url string) (string, error) {
	return r.ResolveFn(ctx, url)
}

func (r *RedirectResolver) Close() error {
	if r.CloseFn == nil {
		return nil
	}
	return r.CloseFn()
}
