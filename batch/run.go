package batch

import (
	"context"
	"log/slog"

	"github.com/akarpov/shelfwatch"
)

// Runner executes one full cycle: read the ledger, optionally fix
// redirected URLs, fetch every row, reconcile, and export.
//
// The ledger is the single shared mutable resource; Runner assumes
// single-writer access (no overlapping runs) and relies on the caller to
// enforce it. Interrupting a run mid-fetch leaves the ledger untouched:
// the only mutation outside redirect corrections is the final batch
// write.
type Runner struct {
	Ledger   shelfwatch.Ledger
	Fetcher  *Fetcher
	Exporter *Exporter

	// Resolver canonicalizes row URLs before fetching; nil disables
	// redirect fixing regardless of the flag passed to Run.
	Resolver shelfwatch.RedirectResolver

	// CartProbe adds the aggregate-cart sentinel to the fetch list.
	CartProbe bool

	Logger *slog.Logger
}

// Result summarizes one cycle.
type Result struct {
	Rows      int
	Fetched   int
	Corrected int
}

// Run executes one cycle. Per-URL failures surface as status records;
// only ledger I/O errors propagate.
func (r *Runner) Run(ctx context.Context, fixRedirects bool) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := r.Ledger.ReadURLs(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("read ledger", "rows", len(rows))

	result := &Result{Rows: len(rows)}

	if fixRedirects && r.Resolver != nil {
		result.Corrected = r.fixRedirects(ctx, rows, logger)
	}

	// Blank ledger rows produce blank records at reconcile time; fetching
	// them would dispatch the cart sentinel to strategies that cannot
	// serve it. The sentinel goes out only for an explicit cart probe.
	fetchURLs := make([]string, 0, len(rows)+1)
	for _, u := range rows {
		if u != "" {
			fetchURLs = append(fetchURLs, u)
		}
	}
	if r.CartProbe {
		fetchURLs = append(fetchURLs, "")
	}

	items := r.Fetcher.FetchAll(ctx, fetchURLs)
	result.Fetched = len(items)
	logger.Info("fetched batch", "items", len(items))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := Reconcile(rows, items)
	if err := r.Exporter.Export(ctx, records); err != nil {
		return nil, err
	}
	logger.Info("exported records", "rows", len(records))

	return result, nil
}

// fixRedirects canonicalizes each row URL in place and writes every
// correction back to the ledger so future cycles read the fixed URL
// directly. Correction failures are logged, not fatal; the fetch still
// proceeds with the resolved URL.
func (r *Runner) fixRedirects(ctx context.Context, rows []string, logger *slog.Logger) int {
	corrected := 0
	for i, old := range rows {
		if old == "" {
			continue
		}

		canonical, err := r.Resolver.Resolve(ctx, old)
		if err != nil {
			logger.Warn("redirect resolution failed", "url", old, "error", err)
			continue
		}
		if canonical == old {
			continue
		}

		rows[i] = canonical
		corrected++
		if err := r.Ledger.ReplaceURL(ctx, old, canonical); err != nil {
			logger.Warn("ledger URL correction failed", "old", old, "new", canonical, "error", err)
		}
	}
	return corrected
}
