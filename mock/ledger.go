package mock

import (
	"context"

	"github.com/akarpov/shelfwatch"
)

var _ shelfwatch.Ledger = (*Ledger)(nil)

// Ledger is a mock implementation of shelfwatch.Ledger.
type Ledger struct {
	ReadURLsFn     func(ctx context.Context) ([]string, error)
	WriteRecordsFn func(ctx context.Context, records []shelfwatch.Record) error
	ReplaceURLFn   func(ctx context.Context, oldURL, newURL string) error
}

func (l *Ledger) ReadURLs(ctx context.Context) ([]string, error) {
	return l.ReadURLsFn(ctx)
}

func (l *Ledger) WriteRecords(ctx context.Context, records []shelfwatch.Record) error {
	return l.WriteRecordsFn(ctx, records)
}

func (l *Ledger) ReplaceURL(ctx context.Context, oldURL, newURL string) error {
	return l.ReplaceURLFn(ctx, oldURL, newURL)
}
