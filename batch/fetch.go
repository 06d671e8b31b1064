package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/akarpov/shelfwatch"
	"golang.org/x/sync/errgroup"
)

// Fetcher routes a list of tracked URLs to their marketplace strategies
// and collects the observations. The output carries no order; callers
// must reconcile it against ledger row order themselves.
type Fetcher struct {
	// Ozon and Wildberries are the per-marketplace strategies. A nil
	// strategy drops its partition with a warning.
	Ozon        shelfwatch.Fetcher
	Wildberries shelfwatch.Fetcher

	// Retry wraps every individual fetch.
	Retry RetryPolicy

	// OzonConcurrency bounds parallel Ozon fetches; browser-backed
	// strategies need one session per in-flight fetch, so this must not
	// exceed the session budget. WildberriesConcurrency bounds the API
	// partition. Zero means serial.
	OzonConcurrency        int
	WildberriesConcurrency int

	Logger *slog.Logger
}

// FetchAll fetches every recognized URL and returns the observations as
// an unordered collection: exactly one item per recognized URL, with
// error statuses standing in for failed fetches. URLs matching no known
// marketplace are dropped with a logged warning.
//
// The empty-URL cart sentinel is routed to the Ozon strategy after the
// rest of its partition completes.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []shelfwatch.Item {
	logger := f.logger()

	var ozonURLs, wbURLs []string
	sentinel := false
	for _, u := range urls {
		if u == "" {
			sentinel = true
			continue
		}
		switch shelfwatch.MarketplaceOf(u) {
		case shelfwatch.MarketplaceOzon:
			ozonURLs = append(ozonURLs, u)
		case shelfwatch.MarketplaceWildberries:
			wbURLs = append(wbURLs, u)
		default:
			logger.Warn("dropping URL for unknown marketplace", "url", u)
		}
	}

	var mu sync.Mutex
	var items []shelfwatch.Item
	collect := func(item *shelfwatch.Item) {
		if item == nil {
			return
		}
		mu.Lock()
		items = append(items, *item)
		mu.Unlock()
	}

	// Partitions are independent and run in parallel; within each
	// partition concurrency is bounded separately.
	var partitions errgroup.Group

	if f.Ozon != nil {
		partitions.Go(func() error {
			f.fetchPartition(ctx, f.Ozon, ozonURLs, f.OzonConcurrency, collect)
			if sentinel {
				collect(f.Retry.Fetch(ctx, f.Ozon, ""))
			}
			return nil
		})
	} else if len(ozonURLs) > 0 || sentinel {
		logger.Warn("no ozon strategy configured", "urls", len(ozonURLs))
	}

	if f.Wildberries != nil {
		partitions.Go(func() error {
			f.fetchPartition(ctx, f.Wildberries, wbURLs, f.WildberriesConcurrency, collect)
			return nil
		})
	} else if len(wbURLs) > 0 {
		logger.Warn("no wildberries strategy configured", "urls", len(wbURLs))
	}

	_ = partitions.Wait()
	return items
}

// fetchPartition fetches one marketplace's URLs with bounded
// concurrency. Every URL yields exactly one collected item.
func (f *Fetcher) fetchPartition(ctx context.Context, strategy shelfwatch.Fetcher, urls []string, concurrency int, collect func(*shelfwatch.Item)) {
	if len(urls) == 0 {
		return
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			collect(f.Retry.Fetch(ctx, strategy, url))
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
