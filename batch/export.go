package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarpov/shelfwatch"
	"github.com/cenkalti/backoff/v4"
)

// DefaultExportBackoff is the fixed delay between write-back attempts.
const DefaultExportBackoff = 60 * time.Second

// Exporter applies a completed cycle's records to the ledger. A failed
// write is retried with a fixed backoff until it succeeds or the context
// is canceled — a completed fetch cycle's results are never dropped
// silently.
type Exporter struct {
	Ledger shelfwatch.Ledger

	// Backoff is the fixed delay between attempts.
	Backoff time.Duration

	Logger *slog.Logger
}

// Export writes the records as one batch. Returns nil once the write
// succeeds, or the context error if canceled first.
func (e *Exporter) Export(ctx context.Context, records []shelfwatch.Record) error {
	interval := e.Backoff
	if interval <= 0 {
		interval = DefaultExportBackoff
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	notify := func(err error, next time.Duration) {
		logger.Error("ledger write failed, retrying",
			"error", err,
			"next_attempt_in", next,
		)
	}

	return backoff.RetryNotify(func() error {
		return e.Ledger.WriteRecords(ctx, records)
	}, policy, notify)
}
