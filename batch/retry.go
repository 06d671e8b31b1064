package batch

import (
	"context"
	"time"

	"github.com/akarpov/shelfwatch"
	"github.com/cenkalti/backoff/v4"
)

// Retry defaults. These are operational policy, not derived constraints;
// override them per deployment.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 5 * time.Second
)

// RetryPolicy wraps a single fetch with bounded retry and backoff.
//
// Wrong-URL and out-of-stock outcomes are semantically final and are
// never retried; parsing failures are retried up to MaxAttempts. A URL
// that exhausts its retries yields an Item with a parsing-error status
// rather than an error, so one bad URL never aborts a batch.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// Exponential doubles the delay after every failed attempt; when
	// false the delay stays constant.
	Exponential bool
}

// Fetch runs one fetch under the policy and always returns an item:
// either the strategy's observation or a status item derived from the
// terminal error.
func (p RetryPolicy) Fetch(ctx context.Context, fetcher shelfwatch.Fetcher, url string) *shelfwatch.Item {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	interval := p.InitialBackoff
	if interval <= 0 {
		interval = DefaultInitialBackoff
	}

	var policy backoff.BackOff
	if p.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = interval
		eb.RandomizationFactor = 0
		eb.Multiplier = 2
		eb.MaxElapsedTime = 0
		policy = eb
	} else {
		policy = backoff.NewConstantBackOff(interval)
	}
	policy = backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxAttempts-1)), ctx)

	var item *shelfwatch.Item
	operation := func() error {
		fetched, err := fetcher.Fetch(ctx, url)
		if err != nil {
			switch shelfwatch.ErrorCode(err) {
			case shelfwatch.EWRONGURL, shelfwatch.EOUTOFSTOCK:
				return backoff.Permanent(err)
			}
			return err
		}
		item = fetched
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err == nil {
		return item
	}

	switch shelfwatch.ErrorCode(err) {
	case shelfwatch.EWRONGURL:
		return &shelfwatch.Item{URL: url, Status: shelfwatch.StatusWrongURL}
	case shelfwatch.EOUTOFSTOCK:
		return &shelfwatch.Item{URL: url, Status: shelfwatch.StatusOutOfStock}
	}
	return &shelfwatch.Item{URL: url, Status: shelfwatch.StatusParsingError}
}
