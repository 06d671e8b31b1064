package rod

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/akarpov/shelfwatch"
	"github.com/go-rod/rod/lib/proto"
)

// pageInfo is the slice of the page API waitForRedirect needs; narrowed
// for testability.
type pageInfo interface {
	Info() (*proto.TargetTargetInfo, error)
}

// DefaultSettleWait is how long Resolve waits for a navigation to settle
// on its final location.
const DefaultSettleWait = 3 * time.Second

// searchFallback marks a redirect target that signals "listing removed"
// rather than a valid new location.
const searchFallback = "ozon.ru/search/"

// Ensure Resolver implements shelfwatch.RedirectResolver at compile time.
var _ shelfwatch.RedirectResolver = (*Resolver)(nil)

// Resolver canonicalizes listing URLs using a browser session: tracking
// query parameters are stripped and client- and server-side redirects are
// followed to the final location.
type Resolver struct {
	manager *BrowserManager
	wait    time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSettleWait overrides how long Resolve waits for a navigation to
// settle. The wait expiring is non-fatal.
func WithSettleWait(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.wait = d
	}
}

// NewResolver creates a Resolver on top of an existing BrowserManager.
func NewResolver(manager *BrowserManager, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		manager: manager,
		wait:    DefaultSettleWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical form of the URL. If navigation does not
// settle on a different location within the wait window, or lands on a
// search fallback page, the query-stripped input is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	stripped, err := StripQuery(rawURL)
	if err != nil {
		return "", shelfwatch.Errorf(shelfwatch.EWRONGURL, "unparseable url %q: %v", rawURL, err)
	}

	page, release, err := r.manager.Page(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if err := page.Navigate(stripped); err != nil {
		// Navigation failures are non-fatal for canonicalization.
		return stripped, nil
	}

	final := r.waitForRedirect(ctx, page, stripped)
	if final == stripped || strings.Contains(final, searchFallback) {
		return stripped, nil
	}

	canonical, err := StripQuery(final)
	if err != nil {
		return stripped, nil
	}
	return canonical, nil
}

// Close releases resolver resources. The browser manager is shared and
// closed by its owner.
func (r *Resolver) Close() error {
	return nil
}

// waitForRedirect polls the page location until it differs from the
// requested URL or the wait window expires.
func (r *Resolver) waitForRedirect(ctx context.Context, page pageInfo, requested string) string {
	deadline := time.Now().Add(r.wait)
	current := requested
	for time.Now().Before(deadline) {
		info, err := page.Info()
		if err == nil {
			current = info.URL
		}
		if current != requested && current != "" {
			return current
		}
		select {
		case <-ctx.Done():
			return current
		case <-time.After(100 * time.Millisecond):
		}
	}
	return current
}

// StripQuery removes the query component from a URL, leaving the rest
// untouched.
func StripQuery(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.ForceQuery = false
	return u.String(), nil
}
