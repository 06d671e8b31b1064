// Package httpapi provides direct-API implementations of
// shelfwatch.Fetcher: instead of rendering marketplace pages it calls
// their backend endpoints and parses JSON. Schema drift in those
// responses is the primary source of parsing failures.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/akarpov/shelfwatch"
)

// DefaultTimeout bounds one request/response exchange.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every request; the marketplaces reject
// the Go default agent outright.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var nonDigitRe = regexp.MustCompile(`\D`)

// ParsePriceLiteral converts a formatted price literal ("12 990 ₽") to
// an integer by stripping every non-digit rune.
func ParsePriceLiteral(s string) (int, error) {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return 0, shelfwatch.Errorf(shelfwatch.EPARSING, "no digits in price literal %q", s)
	}
	return strconv.Atoi(digits)
}

// getJSON issues a GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url, userAgent string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EINVALID, "building request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)

	return doJSON(client, req, out)
}

// postJSON issues a POST with a JSON body and decodes the JSON response
// into out.
func postJSON(ctx context.Context, client *http.Client, url, userAgent string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EINVALID, "encoding request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EINVALID, "building request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "%s %s: HTTP %d", req.Method, req.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "reading response: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return shelfwatch.Errorf(shelfwatch.EPARSING, "decoding response: %v", err)
	}
	return nil
}

// itemFromError converts a terminal fetch error into a statused item for
// the given URL, used when assembling channel pairs. Non-terminal errors
// map to a parsing-error item.
func itemFromError(url string, err error) shelfwatch.Item {
	switch shelfwatch.ErrorCode(err) {
	case shelfwatch.EWRONGURL:
		return shelfwatch.Item{URL: url, Status: shelfwatch.StatusWrongURL}
	case shelfwatch.EOUTOFSTOCK:
		return shelfwatch.Item{URL: url, Status: shelfwatch.StatusOutOfStock}
	}
	return shelfwatch.Item{URL: url, Status: shelfwatch.StatusParsingError}
}
