package slog_test

import (
	"bytes"
	"context"
	stdslog "log/slog"
	"testing"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/mock"
	shslog "github.com/akarpov/shelfwatch/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingLedger(t *testing.T) {
	t.Parallel()

	t.Run("logs reads and passes results through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := stdslog.New(stdslog.NewTextHandler(&buf, nil))
		next := &mock.Ledger{
			ReadURLsFn: func(_ context.Context) ([]string, error) {
				return []string{"https://www.ozon.ru/product/a"}, nil
			},
		}

		l := shslog.NewLoggingLedger(next, logger)
		urls, err := l.ReadURLs(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.ozon.ru/product/a"}, urls)
		assert.Contains(t, buf.String(), "ledger read")
		assert.Contains(t, buf.String(), "rows=1")
	})

	t.Run("logs write failures and returns the error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := stdslog.New(stdslog.NewTextHandler(&buf, nil))
		next := &mock.Ledger{
			WriteRecordsFn: func(_ context.Context, _ []shelfwatch.Record) error {
				return shelfwatch.Errorf(shelfwatch.EINTERNAL, "ledger unavailable")
			},
		}

		l := shslog.NewLoggingLedger(next, logger)
		err := l.WriteRecords(context.Background(), []shelfwatch.Record{{Quantity: "5"}})

		assert.Equal(t, shelfwatch.EINTERNAL, shelfwatch.ErrorCode(err))
		assert.Contains(t, buf.String(), "ledger write failed")
	})

	t.Run("logs URL corrections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := stdslog.New(stdslog.NewTextHandler(&buf, nil))
		next := &mock.Ledger{
			ReplaceURLFn: func(_ context.Context, _, _ string) error { return nil },
		}

		l := shslog.NewLoggingLedger(next, logger)
		err := l.ReplaceURL(context.Background(), "https://www.ozon.ru/product/a?ref=1", "https://www.ozon.ru/product/a")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "ledger url corrected")
	})
}
