package rod

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/akarpov/shelfwatch"
)

// payloadRe locates the JSON state blob the cart page embeds in an inline
// JSON.parse call. The blob is the only place the rendered page exposes
// per-line max quantity.
var payloadRe = regexp.MustCompile(`'(\{.*?trackingPayloads.*?\})'`)

// CartLine is one line item of the embedded cart payload. StockMaxQty is
// the true available stock, not the quantity in the cart.
type CartLine struct {
	StockMaxQty int `json:"stockMaxQty"`
	FinalPrice  int `json:"finalPrice"`
}

type cartPayload struct {
	Shared struct {
		ItemsTrackingInfo []CartLine `json:"itemsTrackingInfo"`
	} `json:"shared"`
}

// ParseCartPayload extracts the embedded cart state from rendered page
// source. Returns EPARSING if the payload is not present yet (the page
// renders it asynchronously) or cannot be decoded.
func ParseCartPayload(html string) ([]CartLine, error) {
	m := payloadRe.FindStringSubmatch(html)
	if m == nil {
		return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "cart payload not found in page source")
	}

	s := m[1]
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = strings.ReplaceAll(s, `\n`, "")
	s = strings.ReplaceAll(s, "&quot;", `"`)

	var payload cartPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "decoding cart payload: %v", err)
	}
	if payload.Shared.ItemsTrackingInfo == nil {
		return nil, shelfwatch.Errorf(shelfwatch.EPARSING, "cart payload has no line items")
	}

	return payload.Shared.ItemsTrackingInfo, nil
}
