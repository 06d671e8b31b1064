package shelfwatch

import "context"

// Fetcher retrieves the current state of one listing.
// Implementations may drive a real browser session or call marketplace
// APIs directly; both expose the same contract.
type Fetcher interface {
	// Fetch returns the observed Item for the URL.
	//
	// Terminal failures are reported as application errors: EWRONGURL
	// when the URL does not match the strategy's expected shape or the
	// navigation target rejected it, EOUTOFSTOCK when the listing is
	// confirmed unavailable, EPARSING when the expected data shape was
	// not found in the response. Only EPARSING is worth retrying.
	Fetch(ctx context.Context, url string) (*Item, error)

	// Close releases any resources held by the strategy.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// PairFetcher retrieves both fulfillment channels of a two-channel
// product row. Each sub-item is statused independently.
type PairFetcher interface {
	FetchPair(ctx context.Context, pair URLPair) (*ItemPair, error)
}

// RateLimiter provides per-domain request pacing so strategies don't
// hammer a marketplace.
type RateLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
