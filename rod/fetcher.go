package rod

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/akarpov/shelfwatch"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Button captions the Ozon product page uses. The out-of-stock caption is
// an explicit affordance; its presence confirms unavailability rather
// than merely missing data.
const (
	outOfStockCaption = "Узнать о поступлении"
	addToCartCaption  = "Добавить в корзину"
	altCartCaption    = "В корзину"
)

// DefaultCartURL is the aggregate cart view of the marketplace.
const DefaultCartURL = "https://www.ozon.ru/cart"

// Defaults for polling the cart page while its embedded payload renders.
const (
	DefaultPollAttempts = 4
	DefaultPollDelay    = 5 * time.Second
)

// Ensure Fetcher implements shelfwatch.Fetcher at compile time.
var _ shelfwatch.Fetcher = (*Fetcher)(nil)

// Fetcher observes Ozon listings by driving a real browser session:
// it opens the product page, adds the item to the cart and reads stock
// and price from the cart page's embedded state.
//
// Each Fetch call holds one exclusive page for its duration; the page is
// released on every exit path.
type Fetcher struct {
	manager      *BrowserManager
	cartURL      string
	pollAttempts int
	pollDelay    time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCartURL overrides the cart page URL. Used by tests.
func WithCartURL(url string) Option {
	return func(f *Fetcher) {
		f.cartURL = url
	}
}

// WithPolling overrides how long Fetch waits for the cart payload to
// render before declaring a parsing failure.
func WithPolling(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) {
		f.pollAttempts = attempts
		f.pollDelay = delay
	}
}

// NewFetcher creates a Fetcher on top of an existing BrowserManager.
// The manager stays owned by the caller and is not closed by Close.
func NewFetcher(manager *BrowserManager, opts ...Option) *Fetcher {
	f := &Fetcher{
		manager:      manager,
		cartURL:      DefaultCartURL,
		pollAttempts: DefaultPollAttempts,
		pollDelay:    DefaultPollDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch observes one listing. The empty URL is the aggregate-cart
// sentinel: the current cart is read without adding anything.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*shelfwatch.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, release, err := f.manager.Page(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if url != "" {
		if err := f.addToCart(page, url); err != nil {
			return nil, err
		}
	}

	line, err := f.readCart(ctx, page)
	if err != nil {
		return nil, err
	}

	return &shelfwatch.Item{
		URL:      url,
		Quantity: line.StockMaxQty,
		Price:    line.FinalPrice,
		Status:   shelfwatch.StatusOK,
	}, nil
}

// Close releases fetcher resources. The browser manager is shared and
// closed by its owner.
func (f *Fetcher) Close() error {
	return nil
}

// addToCart navigates to the product page and triggers the add-to-cart
// interaction.
func (f *Fetcher) addToCart(page *rod.Page, url string) error {
	if err := page.Navigate(url); err != nil {
		return shelfwatch.Errorf(shelfwatch.EWRONGURL, "navigation rejected %q: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "waiting for %q: %v", url, err)
	}

	// A product page that bounces to search or category means the
	// listing is gone.
	info, err := page.Info()
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "reading page info: %v", err)
	}
	if strings.Contains(info.URL, "ozon.ru/search") || strings.Contains(info.URL, "ozon.ru/category") {
		return shelfwatch.Errorf(shelfwatch.EOUTOFSTOCK, "listing removed, landed on %q", info.URL)
	}

	html, err := page.HTML()
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "reading page source: %v", err)
	}
	if hasButton(html, outOfStockCaption) {
		return shelfwatch.Errorf(shelfwatch.EOUTOFSTOCK, "item is out of stock")
	}

	if err := f.clickAddToCart(page); err != nil {
		return err
	}
	return nil
}

// clickAddToCart clicks the primary add-to-cart button, falling back to
// the second "В корзину" control the page shows for some layouts.
func (f *Fetcher) clickAddToCart(page *rod.Page) error {
	el, err := page.Timeout(3 * time.Second).ElementR("button", addToCartCaption)
	if err != nil {
		els, err := page.Timeout(3 * time.Second).ElementsX(
			`//button[contains(., '` + altCartCaption + `')]`)
		if err != nil || len(els) == 0 {
			return shelfwatch.Errorf(shelfwatch.EPARSING, "add-to-cart button not found")
		}
		// The first match is the floating header control; the in-page
		// one comes second when both are present.
		el = els[0]
		if len(els) > 1 {
			el = els[1]
		}
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "clicking add-to-cart: %v", err)
	}
	return nil
}

// readCart opens the cart view and extracts the most recently added line
// item, polling while the embedded payload has not rendered yet.
func (f *Fetcher) readCart(ctx context.Context, page *rod.Page) (*CartLine, error) {
	var lastErr error
	for attempt := 0; attempt < f.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.pollDelay):
			}
		}

		if err := page.Navigate(f.cartURL); err != nil {
			return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "opening cart: %v", err)
		}
		if err := page.WaitLoad(); err != nil {
			return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "waiting for cart: %v", err)
		}

		html, err := page.HTML()
		if err != nil {
			return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "reading cart source: %v", err)
		}

		lines, err := ParseCartPayload(html)
		if err != nil {
			lastErr = err
			continue
		}
		if len(lines) == 0 {
			lastErr = shelfwatch.Errorf(shelfwatch.EPARSING, "cart payload is empty")
			continue
		}
		return &lines[0], nil
	}
	return nil, lastErr
}

// hasButton reports whether the rendered page contains a button with the
// given caption.
func hasButton(html, caption string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	found := false
	doc.Find("button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == caption {
			found = true
			return false
		}
		return true
	})
	return found
}
