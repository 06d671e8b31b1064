package mock

import (
	"context"

	"github.com/akarpov/shelfwatch"
)

var _ shelfwatch.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of shelfwatch.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*shelfwatch.Item, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*shelfwatch.Item, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ shelfwatch.PairFetcher = (*PairFetcher)(nil)

// PairFetcher is a mock implementation of shelfwatch.PairFetcher.
type PairFetcher struct {
	FetchPairFn func(ctx context.Context, pair shelfwatch.URLPair) (*shelfwatch.ItemPair, error)
}

func (f *PairFetcher) FetchPair(ctx context.Context, pair shelfwatch.URLPair) (*shelfwatch.ItemPair, error) {
	return f.FetchPairFn(ctx, pair)
}
