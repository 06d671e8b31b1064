package rod

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarpov/shelfwatch"
)

// Ensure LoggingFetcher implements shelfwatch.Fetcher.
var _ shelfwatch.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-fetch logging.
type LoggingFetcher struct {
	next   shelfwatch.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next shelfwatch.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (item *shelfwatch.Item, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			slog.String("url", url),
			slog.Duration("duration", time.Since(begin)),
		}
		if item != nil {
			attrs = append(attrs,
				slog.String("status", item.Status.String()),
				slog.Int("quantity", item.Quantity),
			)
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		f.logger.Info("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
