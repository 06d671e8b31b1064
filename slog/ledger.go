// Package slog provides logging decorators for shelfwatch services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarpov/shelfwatch"
)

// Ensure LoggingLedger implements shelfwatch.Ledger.
var _ shelfwatch.Ledger = (*LoggingLedger)(nil)

// LoggingLedger wraps a Ledger with structured logging for every
// operation.
type LoggingLedger struct {
	next   shelfwatch.Ledger
	logger *slog.Logger
}

// NewLoggingLedger creates a new LoggingLedger.
func NewLoggingLedger(next shelfwatch.Ledger, logger *slog.Logger) *LoggingLedger {
	return &LoggingLedger{next: next, logger: logger}
}

// ReadURLs delegates to the wrapped ledger and logs the row count.
func (l *LoggingLedger) ReadURLs(ctx context.Context) ([]string, error) {
	begin := time.Now()
	urls, err := l.next.ReadURLs(ctx)
	if err != nil {
		l.logger.Error("ledger read failed",
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	l.logger.Info("ledger read",
		"rows", len(urls),
		"duration", time.Since(begin),
	)
	return urls, nil
}

// WriteRecords delegates to the wrapped ledger and logs the outcome.
func (l *LoggingLedger) WriteRecords(ctx context.Context, records []shelfwatch.Record) error {
	begin := time.Now()
	err := l.next.WriteRecords(ctx, records)
	if err != nil {
		l.logger.Error("ledger write failed",
			"rows", len(records),
			"duration", time.Since(begin),
			"error", err,
		)
		return err
	}
	l.logger.Info("ledger write",
		"rows", len(records),
		"duration", time.Since(begin),
	)
	return nil
}

// ReplaceURL delegates to the wrapped ledger and logs the correction.
func (l *LoggingLedger) ReplaceURL(ctx context.Context, oldURL, newURL string) error {
	err := l.next.ReplaceURL(ctx, oldURL, newURL)
	if err != nil {
		l.logger.Error("ledger url correction failed",
			"old", oldURL,
			"new", newURL,
			"error", err,
		)
		return err
	}
	l.logger.Info("ledger url corrected",
		"old", oldURL,
		"new", newURL,
	)
	return nil
}
