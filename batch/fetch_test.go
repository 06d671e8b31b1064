package batch_test

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/batch"
	"github.com/akarpov/shelfwatch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okFetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*shelfwatch.Item, error) {
			return &shelfwatch.Item{URL: url, Quantity: 1, Price: 100, Status: shelfwatch.StatusOK}, nil
		},
	}
}

func TestFetcher_FetchAll(t *testing.T) {
	t.Parallel()

	t.Run("routes URLs to their marketplace strategies", func(t *testing.T) {
		t.Parallel()

		var ozonCalls, wbCalls atomic.Int64
		ozon := okFetcher()
		base := ozon.FetchFn
		ozon.FetchFn = func(ctx context.Context, url string) (*shelfwatch.Item, error) {
			ozonCalls.Add(1)
			return base(ctx, url)
		}
		wb := okFetcher()
		wbBase := wb.FetchFn
		wb.FetchFn = func(ctx context.Context, url string) (*shelfwatch.Item, error) {
			wbCalls.Add(1)
			return wbBase(ctx, url)
		}

		f := &batch.Fetcher{Ozon: ozon, Wildberries: wb}
		items := f.FetchAll(context.Background(), []string{
			"https://www.ozon.ru/product/a",
			"https://www.wildberries.ru/catalog/1/detail.aspx",
			"https://www.ozon.ru/product/b",
		})

		assert.Len(t, items, 3)
		assert.Equal(t, int64(2), ozonCalls.Load())
		assert.Equal(t, int64(1), wbCalls.Load())
	})

	t.Run("drops URLs for unknown marketplaces", func(t *testing.T) {
		t.Parallel()

		f := &batch.Fetcher{Ozon: okFetcher(), Wildberries: okFetcher()}
		items := f.FetchAll(context.Background(), []string{
			"https://example.com/product/a",
			"https://www.ozon.ru/product/a",
		})

		require.Len(t, items, 1)
		assert.Equal(t, "https://www.ozon.ru/product/a", items[0].URL)
	})

	t.Run("one failed URL does not suppress the rest", func(t *testing.T) {
		t.Parallel()

		ozon := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*shelfwatch.Item, error) {
				if url == "https://www.ozon.ru/product/bad" {
					return nil, shelfwatch.Errorf(shelfwatch.EWRONGURL, "no product id")
				}
				return &shelfwatch.Item{URL: url, Quantity: 1, Price: 100, Status: shelfwatch.StatusOK}, nil
			},
		}

		f := &batch.Fetcher{Ozon: ozon}
		items := f.FetchAll(context.Background(), []string{
			"https://www.ozon.ru/product/bad",
			"https://www.ozon.ru/product/good",
		})

		require.Len(t, items, 2)
		byURL := map[string]shelfwatch.Status{}
		for _, item := range items {
			byURL[item.URL] = item.Status
		}
		assert.Equal(t, shelfwatch.StatusWrongURL, byURL["https://www.ozon.ru/product/bad"])
		assert.Equal(t, shelfwatch.StatusOK, byURL["https://www.ozon.ru/product/good"])
	})

	t.Run("cart sentinel runs after the ozon partition", func(t *testing.T) {
		t.Parallel()

		var order []string
		ozon := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*shelfwatch.Item, error) {
				order = append(order, url)
				return &shelfwatch.Item{URL: url, Quantity: 1, Price: 100, Status: shelfwatch.StatusOK}, nil
			},
		}

		f := &batch.Fetcher{Ozon: ozon}
		items := f.FetchAll(context.Background(), []string{
			"",
			"https://www.ozon.ru/product/a",
			"https://www.ozon.ru/product/b",
		})

		require.Len(t, items, 3)
		require.Len(t, order, 3)
		assert.Equal(t, "", order[2])
	})

	t.Run("concurrency bound is respected", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int64
		ozon := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*shelfwatch.Item, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return &shelfwatch.Item{URL: url, Status: shelfwatch.StatusOK}, nil
			},
		}

		f := &batch.Fetcher{Ozon: ozon, OzonConcurrency: 2}
		urls := []string{
			"https://www.ozon.ru/product/a",
			"https://www.ozon.ru/product/b",
			"https://www.ozon.ru/product/c",
			"https://www.ozon.ru/product/d",
			"https://www.ozon.ru/product/e",
			"https://www.ozon.ru/product/f",
		}
		items := f.FetchAll(context.Background(), urls)

		assert.Len(t, items, len(urls))
		assert.LessOrEqual(t, peak.Load(), int64(2))
	})

	t.Run("returns one item per recognized URL", func(t *testing.T) {
		t.Parallel()

		f := &batch.Fetcher{Ozon: okFetcher(), Wildberries: okFetcher()}
		urls := []string{
			"https://www.ozon.ru/product/a",
			"https://www.wildberries.ru/catalog/1/detail.aspx",
			"https://www.wildberries.ru/catalog/2/detail.aspx",
		}
		items := f.FetchAll(context.Background(), urls)

		got := make([]string, 0, len(items))
		for _, item := range items {
			got = append(got, item.URL)
		}
		sort.Strings(got)
		want := append([]string(nil), urls...)
		sort.Strings(want)
		assert.Equal(t, want, got)
	})
}
