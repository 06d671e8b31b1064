package shelfwatch

import "context"

// RedirectResolver canonicalizes a listing URL: it strips tracking query
// parameters and follows client- and server-side redirects to the final
// location.
type RedirectResolver interface {
	// Resolve returns the canonical form of the URL. A navigation that
	// does not settle within the resolver's wait window is non-fatal;
	// the query-stripped input is returned unchanged.
	Resolve(ctx context.Context, url string) (string, error)

	// Close releases any resources held by the resolver.
	Close() error
}
