package shelfwatch

import "strings"

// Status describes the outcome of fetching one listing.
type Status int

// Status values form a closed enumeration. Anything that is not StatusOK
// carries no meaningful quantity or price.
const (
	StatusOK Status = iota
	StatusOutOfStock
	StatusWrongURL
	StatusParsingError
	StatusOutdatedURL
)

// String returns the status name for logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusOutOfStock:
		return "OUT_OF_STOCK"
	case StatusWrongURL:
		return "WRONG_URL"
	case StatusParsingError:
		return "PARSING_ERROR"
	case StatusOutdatedURL:
		return "OUTDATED_URL"
	}
	return "UNKNOWN"
}

// Label returns the text shown in the ledger for a row with this status.
// The labels match what the trackers' operators expect to read in the
// quantity cell; StatusWrongURL intentionally renders blank.
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "Ок"
	case StatusOutOfStock:
		return "Нет в наличии"
	case StatusParsingError:
		return "Ошибка"
	case StatusOutdatedURL:
		return "Обновите ссылку"
	}
	return ""
}

// Item is one observation of a listing: how many units are available and
// at what price. URL is set once at creation and identifies the ledger row
// the observation belongs to.
type Item struct {
	URL      string
	Quantity int

	// Price is the standard price in minor currency units.
	Price int

	// DiscountPrice is the loyalty/discount price when one applies,
	// zero otherwise. When present it supersedes Price for display.
	DiscountPrice int

	Status Status
}

// DisplayPrice returns the price to show for the item and whether it is
// a discounted price.
func (i Item) DisplayPrice() (int, bool) {
	if i.DiscountPrice > 0 {
		return i.DiscountPrice, true
	}
	return i.Price, false
}

// URLPair holds the two listing URLs of a product sold through two
// fulfillment channels (seller-shipped and marketplace-shipped).
type URLPair struct {
	FBS string
	FBO string
}

// ItemPair holds the two independently-statused observations for a
// two-channel product row.
type ItemPair struct {
	FBS Item
	FBO Item
}

// OutOfStock reports whether both channels are confirmed unavailable.
func (p ItemPair) OutOfStock() bool {
	return p.FBS.Status == StatusOutOfStock && p.FBO.Status == StatusOutOfStock
}

// Marketplace identifies which retrieval strategy applies to a URL.
type Marketplace int

// Known marketplaces. URLs that match none are dropped from a batch with
// a logged warning rather than treated as errors.
const (
	MarketplaceUnknown Marketplace = iota
	MarketplaceOzon
	MarketplaceWildberries
)

// String returns the marketplace name for logs.
func (m Marketplace) String() string {
	switch m {
	case MarketplaceOzon:
		return "ozon"
	case MarketplaceWildberries:
		return "wildberries"
	}
	return "unknown"
}

// MarketplaceOf classifies a URL by marketplace domain.
//
// The empty string is a sentinel meaning "inspect aggregate cart state";
// it belongs to no marketplace and must never be matched against ledger
// rows.
func MarketplaceOf(url string) Marketplace {
	switch {
	case strings.Contains(url, "ozon.ru"):
		return MarketplaceOzon
	case strings.Contains(url, "wildberries.ru"):
		return MarketplaceWildberries
	}
	return MarketplaceUnknown
}
