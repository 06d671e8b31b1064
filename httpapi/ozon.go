package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/akarpov/shelfwatch"
)

// DefaultOzonBaseURL is the marketplace API host.
const DefaultOzonBaseURL = "https://api.ozon.ru"

const (
	ozonProductPath = "/entrypoint-api.bx/page/json/v2"
	ozonCartPath    = "/composer-api.bx/_action/addToCart"
)

// cartProbeQuantity is deliberately larger than any realistic stock; the
// cart endpoint caps it at the true maximum, which is the number we want.
const cartProbeQuantity = 2000

var (
	ozonSlugRe  = regexp.MustCompile(`(?:/product/|%2Fproduct%2F)([\w-]+)`)
	lastDigitRe = regexp.MustCompile(`\d+`)
)

// ExtractOzonSKU pulls the product slug and numeric SKU out of a listing
// URL. Returns EWRONGURL when the URL has no recognizable product part.
func ExtractOzonSKU(rawURL string) (slug string, sku int64, err error) {
	m := ozonSlugRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", 0, shelfwatch.Errorf(shelfwatch.EWRONGURL, "no product id in %q", rawURL)
	}
	slug = m[1]

	digits := lastDigitRe.FindAllString(slug, -1)
	if len(digits) == 0 {
		return "", 0, shelfwatch.Errorf(shelfwatch.EWRONGURL, "no numeric sku in %q", rawURL)
	}
	sku, err = strconv.ParseInt(digits[len(digits)-1], 10, 64)
	if err != nil {
		return "", 0, shelfwatch.Errorf(shelfwatch.EWRONGURL, "bad sku in %q: %v", rawURL, err)
	}
	return slug, sku, nil
}

// Ensure OzonClient implements the fetcher contracts at compile time.
var (
	_ shelfwatch.Fetcher     = (*OzonClient)(nil)
	_ shelfwatch.PairFetcher = (*OzonClient)(nil)
)

// OzonClient observes Ozon listings through the marketplace's backend
// API: one GET for price data and one cart-simulation POST that elicits
// the true maximum available stock. It holds no resource beyond a single
// request/response exchange per call.
type OzonClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   shelfwatch.RateLimiter
}

// OzonOption configures an OzonClient.
type OzonOption func(*OzonClient)

// WithOzonBaseURL overrides the API host. Used by tests.
func WithOzonBaseURL(base string) OzonOption {
	return func(c *OzonClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithOzonHTTPClient overrides the HTTP client.
func WithOzonHTTPClient(client *http.Client) OzonOption {
	return func(c *OzonClient) {
		c.client = client
	}
}

// WithOzonUserAgent overrides the User-Agent header.
func WithOzonUserAgent(ua string) OzonOption {
	return func(c *OzonClient) {
		c.userAgent = ua
	}
}

// WithOzonRateLimiter paces requests against the API host.
func WithOzonRateLimiter(limiter shelfwatch.RateLimiter) OzonOption {
	return func(c *OzonClient) {
		c.limiter = limiter
	}
}

// NewOzonClient creates a new OzonClient.
func NewOzonClient(opts ...OzonOption) *OzonClient {
	c := &OzonClient{
		client:    &http.Client{Timeout: DefaultTimeout},
		baseURL:   DefaultOzonBaseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ozonProductResponse is the price endpoint's envelope. Widget states
// are keyed by versioned widget ids, each holding a JSON string.
type ozonProductResponse struct {
	WidgetStates map[string]string `json:"widgetStates"`
}

type ozonPriceWidget struct {
	Price     string `json:"price"`
	CardPrice string `json:"cardPrice"`
}

type ozonCartResponse struct {
	Cart struct {
		CartItems []struct {
			Qty int `json:"qty"`
		} `json:"cartItems"`
	} `json:"cart"`
}

// Fetch observes one listing. The aggregate-cart sentinel (empty URL)
// does not apply to the API strategy and is rejected as a wrong URL.
func (c *OzonClient) Fetch(ctx context.Context, rawURL string) (*shelfwatch.Item, error) {
	slug, sku, err := ExtractOzonSKU(rawURL)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	price, cardPrice, err := c.fetchPrices(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	qty, err := c.probeCart(ctx, sku)
	if err != nil {
		return nil, err
	}

	return &shelfwatch.Item{
		URL:           rawURL,
		Quantity:      qty,
		Price:         price,
		DiscountPrice: cardPrice,
		Status:        shelfwatch.StatusOK,
	}, nil
}

// FetchPair observes both fulfillment channels of a product row. Each
// channel is statused independently; a blank channel URL yields a blank
// sub-item.
func (c *OzonClient) FetchPair(ctx context.Context, pair shelfwatch.URLPair) (*shelfwatch.ItemPair, error) {
	result := &shelfwatch.ItemPair{}
	for i, u := range []string{pair.FBS, pair.FBO} {
		sub := shelfwatch.Item{URL: u, Status: shelfwatch.StatusWrongURL}
		if u != "" {
			item, err := c.Fetch(ctx, u)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				sub = itemFromError(u, err)
			} else {
				sub = *item
			}
		}
		if i == 0 {
			result.FBS = sub
		} else {
			result.FBO = sub
		}
	}
	return result, nil
}

// Close implements shelfwatch.Fetcher; the client holds no resources.
func (c *OzonClient) Close() error {
	return nil
}

func (c *OzonClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, "ozon.ru")
}

// fetchPrices reads the price widget of the product page JSON. A missing
// webPrice widget is the API's out-of-stock signal.
func (c *OzonClient) fetchPrices(ctx context.Context, slug string) (price, cardPrice int, err error) {
	endpoint := c.baseURL + ozonProductPath + "?url=" + url.QueryEscape("/product/"+slug)

	var resp ozonProductResponse
	if err := getJSON(ctx, c.client, endpoint, c.userAgent, &resp); err != nil {
		return 0, 0, err
	}
	if resp.WidgetStates == nil {
		return 0, 0, shelfwatch.Errorf(shelfwatch.EPARSING, "product response has no widget states")
	}

	var widget *ozonPriceWidget
	for key, value := range resp.WidgetStates {
		if !strings.HasPrefix(key, "webPrice-") {
			continue
		}
		var w ozonPriceWidget
		if err := json.Unmarshal([]byte(value), &w); err != nil {
			return 0, 0, shelfwatch.Errorf(shelfwatch.EPARSING, "decoding price widget: %v", err)
		}
		widget = &w
		break
	}
	if widget == nil {
		return 0, 0, shelfwatch.Errorf(shelfwatch.EOUTOFSTOCK, "item is out of stock")
	}

	price, err = ParsePriceLiteral(widget.Price)
	if err != nil {
		return 0, 0, err
	}
	if widget.CardPrice != "" {
		cardPrice, err = ParsePriceLiteral(widget.CardPrice)
		if err != nil {
			return 0, 0, err
		}
	}
	return price, cardPrice, nil
}

// probeCart simulates adding an oversized quantity to the cart; the
// response reports how many units the marketplace actually granted.
func (c *OzonClient) probeCart(ctx context.Context, sku int64) (int, error) {
	body := []map[string]any{{"id": sku, "quantity": cartProbeQuantity}}

	var resp ozonCartResponse
	if err := postJSON(ctx, c.client, c.baseURL+ozonCartPath, c.userAgent, body, &resp); err != nil {
		return 0, err
	}
	if len(resp.Cart.CartItems) == 0 {
		return 0, shelfwatch.Errorf(shelfwatch.EPARSING, "cart response has no items")
	}
	return resp.Cart.CartItems[0].Qty, nil
}
