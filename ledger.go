package shelfwatch

import "context"

// Record is one output cell pair for a ledger row. Quantity holds either
// the numeric stock count or a status label; Price is blank unless the
// row was observed in stock.
type Record struct {
	Quantity   string `json:"quantity"`
	Price      string `json:"price"`
	Discounted bool   `json:"discounted"`
}

// Blank reports whether the record carries no observation at all.
// A blank record is distinct from an out-of-stock record, which carries
// an explicit status label.
func (r Record) Blank() bool {
	return r.Quantity == "" && r.Price == ""
}

// Ledger is the externally-owned ordered store of tracked URLs.
// The pipeline reads the row order fresh at the start of every cycle and
// never assumes row stability across cycles.
type Ledger interface {
	// ReadURLs returns the tracked URLs in ledger row order.
	ReadURLs(ctx context.Context) ([]string, error)

	// WriteRecords applies one fetch cycle's records as a single batch
	// insert keyed by the same row order as ReadURLs. Implementations
	// must avoid per-cell updates to minimize partial-write windows.
	WriteRecords(ctx context.Context, records []Record) error

	// ReplaceURL locates a row by exact URL match and overwrites it.
	// Returns ENOTFOUND if no row holds the old URL.
	ReplaceURL(ctx context.Context, oldURL, newURL string) error
}
