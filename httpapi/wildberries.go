package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/akarpov/shelfwatch"
)

// DefaultWildberriesCardURL is the product card endpoint.
const DefaultWildberriesCardURL = "https://card.wb.ru/cards/detail"

// Loyalty discount percentages the card endpoint prices against. Fetch
// reads the card twice — with and without the discount — to recover both
// the discounted and the base price.
const (
	saleDiscount   = 27
	noSaleDiscount = 0
)

// DefaultDestination is the delivery region the stock counts are
// evaluated for.
const DefaultDestination = -1257786

var wbCodeRe = regexp.MustCompile(`catalog/(\d+)`)

// ExtractWildberriesCode pulls the item code out of a listing URL.
// Returns EWRONGURL when the URL has no catalog code.
func ExtractWildberriesCode(rawURL string) (string, error) {
	m := wbCodeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", shelfwatch.Errorf(shelfwatch.EWRONGURL, "no catalog code in %q", rawURL)
	}
	return m[1], nil
}

// Ensure WildberriesClient implements shelfwatch.Fetcher at compile time.
var _ shelfwatch.Fetcher = (*WildberriesClient)(nil)

// WildberriesClient observes Wildberries listings through the card API.
// It holds no resource beyond one request/response exchange per call.
type WildberriesClient struct {
	client      *http.Client
	cardURL     string
	userAgent   string
	destination int
	limiter     shelfwatch.RateLimiter
}

// WildberriesOption configures a WildberriesClient.
type WildberriesOption func(*WildberriesClient)

// WithWildberriesCardURL overrides the card endpoint. Used by tests.
func WithWildberriesCardURL(u string) WildberriesOption {
	return func(c *WildberriesClient) {
		c.cardURL = u
	}
}

// WithWildberriesHTTPClient overrides the HTTP client.
func WithWildberriesHTTPClient(client *http.Client) WildberriesOption {
	return func(c *WildberriesClient) {
		c.client = client
	}
}

// WithWildberriesDestination sets the delivery region for stock counts.
func WithWildberriesDestination(dest int) WildberriesOption {
	return func(c *WildberriesClient) {
		c.destination = dest
	}
}

// WithWildberriesRateLimiter paces requests against the card endpoint.
func WithWildberriesRateLimiter(limiter shelfwatch.RateLimiter) WildberriesOption {
	return func(c *WildberriesClient) {
		c.limiter = limiter
	}
}

// NewWildberriesClient creates a new WildberriesClient.
func NewWildberriesClient(opts ...WildberriesOption) *WildberriesClient {
	c := &WildberriesClient{
		client:      &http.Client{Timeout: DefaultTimeout},
		cardURL:     DefaultWildberriesCardURL,
		userAgent:   DefaultUserAgent,
		destination: DefaultDestination,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wbCardResponse struct {
	Data struct {
		Products []wbProduct `json:"products"`
	} `json:"data"`
}

type wbProduct struct {
	SalePriceU int64 `json:"salePriceU"`
	Sizes      []struct {
		Stocks []struct {
			Qty int `json:"qty"`
		} `json:"stocks"`
	} `json:"sizes"`
}

// Fetch observes one listing. An item whose card reports no stock
// entries is a confirmed out-of-stock observation, not a failure.
func (c *WildberriesClient) Fetch(ctx context.Context, rawURL string) (*shelfwatch.Item, error) {
	code, err := ExtractWildberriesCode(rawURL)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	salePrice, quantity, inStock, err := c.card(ctx, code, saleDiscount)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	basePrice, _, _, err := c.card(ctx, code, noSaleDiscount)
	if err != nil {
		return nil, err
	}

	item := &shelfwatch.Item{
		URL:      rawURL,
		Quantity: quantity,
		Price:    basePrice,
		Status:   shelfwatch.StatusOK,
	}
	if salePrice < basePrice {
		item.DiscountPrice = salePrice
	}
	if !inStock {
		item.Quantity = 0
		item.Status = shelfwatch.StatusOutOfStock
	}
	return item, nil
}

// Close implements shelfwatch.Fetcher; the client holds no resources.
func (c *WildberriesClient) Close() error {
	return nil
}

func (c *WildberriesClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, "wb.ru")
}

// card reads the product card priced against the given loyalty discount.
// The reported quantity is the sum across warehouses of the first size.
func (c *WildberriesClient) card(ctx context.Context, code string, discount int) (price, quantity int, inStock bool, err error) {
	endpoint := fmt.Sprintf("%s?nm=%s&spp=%d&dest=%d", c.cardURL, code, discount, c.destination)

	var resp wbCardResponse
	if err := getJSON(ctx, c.client, endpoint, c.userAgent, &resp); err != nil {
		return 0, 0, false, err
	}
	if len(resp.Data.Products) == 0 {
		return 0, 0, false, shelfwatch.Errorf(shelfwatch.EWRONGURL, "item %s not found", code)
	}

	product := resp.Data.Products[0]
	price = int(product.SalePriceU / 100)

	if len(product.Sizes) == 0 {
		return price, 0, false, nil
	}
	for _, stock := range product.Sizes[0].Stocks {
		quantity += stock.Qty
	}
	return price, quantity, quantity > 0, nil
}
