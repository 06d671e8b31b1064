package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOzonSKU(t *testing.T) {
	t.Parallel()

	t.Run("plain product URL", func(t *testing.T) {
		t.Parallel()

		slug, sku, err := httpapi.ExtractOzonSKU("https://www.ozon.ru/product/smart-widget-123456/")
		require.NoError(t, err)
		assert.Equal(t, "smart-widget-123456", slug)
		assert.Equal(t, int64(123456), sku)
	})

	t.Run("escaped product URL", func(t *testing.T) {
		t.Parallel()

		_, sku, err := httpapi.ExtractOzonSKU("https://www.ozon.ru/x?u=%2Fproduct%2Fthing-42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), sku)
	})

	t.Run("sku is the last digit run in the slug", func(t *testing.T) {
		t.Parallel()

		_, sku, err := httpapi.ExtractOzonSKU("https://www.ozon.ru/product/usb-3-hub-998877/")
		require.NoError(t, err)
		assert.Equal(t, int64(998877), sku)
	})

	t.Run("no product part", func(t *testing.T) {
		t.Parallel()

		_, _, err := httpapi.ExtractOzonSKU("https://www.ozon.ru/cart")
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EWRONGURL, shelfwatch.ErrorCode(err))
	})
}

// ozonServer fakes the two API endpoints the client talks to.
func ozonServer(t *testing.T, widgetStates map[string]string, cartQty int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/entrypoint-api.bx/page/json/v2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"widgetStates": widgetStates})
	})
	mux.HandleFunc("/composer-api.bx/_action/addToCart", func(w http.ResponseWriter, r *http.Request) {
		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"cart": map[string]any{
				"cartItems": []map[string]any{{"qty": cartQty}},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOzonClient_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns quantity and prices", func(t *testing.T) {
		t.Parallel()

		srv := ozonServer(t, map[string]string{
			"webPrice-123-default": `{"price":"12 990 ₽","cardPrice":"11 490 ₽"}`,
		}, 14)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		item, err := client.Fetch(context.Background(), "https://www.ozon.ru/product/widget-123456/")
		require.NoError(t, err)

		assert.Equal(t, shelfwatch.StatusOK, item.Status)
		assert.Equal(t, 14, item.Quantity)
		assert.Equal(t, 12990, item.Price)
		assert.Equal(t, 11490, item.DiscountPrice)
	})

	t.Run("missing price widget means out of stock", func(t *testing.T) {
		t.Parallel()

		srv := ozonServer(t, map[string]string{"webGallery-1": `{}`}, 0)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		_, err := client.Fetch(context.Background(), "https://www.ozon.ru/product/widget-123456/")
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EOUTOFSTOCK, shelfwatch.ErrorCode(err))
	})

	t.Run("price without card price", func(t *testing.T) {
		t.Parallel()

		srv := ozonServer(t, map[string]string{
			"webPrice-9": `{"price":"500 ₽"}`,
		}, 3)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		item, err := client.Fetch(context.Background(), "https://www.ozon.ru/product/widget-123456/")
		require.NoError(t, err)

		assert.Equal(t, 500, item.Price)
		assert.Zero(t, item.DiscountPrice)
	})

	t.Run("non-200 response is a parsing failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		_, err := client.Fetch(context.Background(), "https://www.ozon.ru/product/widget-123456/")
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EPARSING, shelfwatch.ErrorCode(err))
	})

	t.Run("unparseable URL fails before any request", func(t *testing.T) {
		t.Parallel()

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL("http://127.0.0.1:0"))
		_, err := client.Fetch(context.Background(), "https://www.ozon.ru/help")
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EWRONGURL, shelfwatch.ErrorCode(err))
	})
}

func TestOzonClient_FetchPair(t *testing.T) {
	t.Parallel()

	t.Run("both channels observed independently", func(t *testing.T) {
		t.Parallel()

		srv := ozonServer(t, map[string]string{
			"webPrice-1": `{"price":"1 000 ₽"}`,
		}, 5)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		pair, err := client.FetchPair(context.Background(), shelfwatch.URLPair{
			FBS: "https://www.ozon.ru/product/widget-111/",
			FBO: "https://www.ozon.ru/product/widget-222/",
		})
		require.NoError(t, err)

		assert.Equal(t, shelfwatch.StatusOK, pair.FBS.Status)
		assert.Equal(t, shelfwatch.StatusOK, pair.FBO.Status)
		assert.Equal(t, 5, pair.FBS.Quantity)
	})

	t.Run("blank channel yields a blank sub-item", func(t *testing.T) {
		t.Parallel()

		srv := ozonServer(t, map[string]string{
			"webPrice-1": `{"price":"1 000 ₽"}`,
		}, 5)

		client := httpapi.NewOzonClient(httpapi.WithOzonBaseURL(srv.URL))
		pair, err := client.FetchPair(context.Background(), shelfwatch.URLPair{
			FBS: "https://www.ozon.ru/product/widget-111/",
		})
		require.NoError(t, err)

		assert.Equal(t, shelfwatch.StatusOK, pair.FBS.Status)
		assert.Equal(t, shelfwatch.StatusWrongURL, pair.FBO.Status)
		assert.Empty(t, pair.FBO.Status.Label())
	})
}

func TestParsePriceLiteral(t *testing.T) {
	t.Parallel()

	got, err := httpapi.ParsePriceLiteral("12 990 ₽")
	require.NoError(t, err)
	assert.Equal(t, 12990, got)

	_, err = httpapi.ParsePriceLiteral("—")
	require.Error(t, err)
	assert.Equal(t, shelfwatch.EPARSING, shelfwatch.ErrorCode(err))
}
