package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/batch"
	"github.com/akarpov/shelfwatch/httpapi"
	"github.com/akarpov/shelfwatch/rod"
	"github.com/akarpov/shelfwatch/sheets"
	shslog "github.com/akarpov/shelfwatch/slog"
	"github.com/akarpov/shelfwatch/sqlite"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	gsheets "google.golang.org/api/sheets/v4"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database backing the default ledger.
	DB *sqlite.DB

	// Ledger for end-to-end testing.
	Ledger shelfwatch.Ledger
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// .env is optional; explicit environment always wins.
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(stderr, &tint.Options{
		Level: logLevel(),
	}))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("shelfwatch"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'shelfwatch --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// args[0] is not reliable here: kong accepts top-level flags before
	// the command (e.g. "--ledger sheets update").
	cmd := kongCtx.Command()

	if err := m.openLedger(ctx, cli.Ledger, deps, stderr); err != nil {
		return err
	}
	defer m.Close()

	// Fetching dependencies are only needed for the cycle commands.
	if cmd == "update" || cmd == "watch" {
		cycle := cli.Update.Cycle
		if cmd == "watch" {
			cycle = cli.Watch.Cycle
		}

		runner, cleanup, err := buildRunner(deps, cycle, stderr)
		if err != nil {
			return err
		}
		defer cleanup()
		deps.Runner = runner
	}

	return kongCtx.Run(deps)
}

// openLedger wires the selected ledger backend into deps.
func (m *Main) openLedger(ctx context.Context, backend string, deps *Dependencies, stderr io.Writer) error {
	switch backend {
	case "sqlite":
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set SHELFWATCH_DB to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		svc := sqlite.NewLedgerService(m.DB)
		deps.URLStore = svc
		m.Ledger = svc

	case "sheets":
		spreadsheetID := os.Getenv("SHELFWATCH_SPREADSHEET")
		if spreadsheetID == "" {
			fmt.Fprintln(stderr, "Hint: Set SHELFWATCH_SPREADSHEET to the spreadsheet id")
			return fmt.Errorf("SHELFWATCH_SPREADSHEET not set")
		}

		// Credentials come from GOOGLE_APPLICATION_CREDENTIALS.
		svc, err := gsheets.NewService(ctx)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set GOOGLE_APPLICATION_CREDENTIALS to a service account key file")
			return fmt.Errorf("failed to connect to the sheets API: %w", err)
		}

		var opts []sheets.LedgerOption
		if name := os.Getenv("SHELFWATCH_SHEET"); name != "" {
			opts = append(opts, sheets.WithSheet(name, envInt64("SHELFWATCH_SHEET_ID", 0)))
		}
		m.Ledger = sheets.NewLedgerService(svc, spreadsheetID, opts...)

	default:
		return fmt.Errorf("unknown ledger backend %q", backend)
	}

	deps.Ledger = shslog.NewLoggingLedger(m.Ledger, deps.Logger)
	return nil
}

// buildRunner assembles the fetch pipeline for one or more cycles. The
// returned cleanup closes the browser when one was started.
func buildRunner(deps *Dependencies, cycle CycleFlags, stderr io.Writer) (*batch.Runner, func(), error) {
	logger := deps.Logger
	limiter := batch.NewDomainLimiter(cycle.RPS)

	wb := httpapi.NewWildberriesClient(httpapi.WithWildberriesRateLimiter(limiter))

	cleanup := func() {}
	var ozon shelfwatch.Fetcher
	var resolver shelfwatch.RedirectResolver

	if cycle.Browser || cycle.FixRedirects {
		var opts []rod.ManagerOption
		if bin := os.Getenv("SHELFWATCH_BROWSER"); bin != "" {
			opts = append(opts, rod.WithBrowserBin(bin))
		}
		manager, err := rod.NewBrowserManager(opts...)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		cleanup = func() { manager.Close() }

		if cycle.Browser {
			ozon = rod.NewLoggingFetcher(rod.NewFetcher(manager), logger)
		}
		if cycle.FixRedirects {
			resolver = rod.NewResolver(manager)
		}
	}

	if ozon == nil {
		ozon = rod.NewLoggingFetcher(httpapi.NewOzonClient(httpapi.WithOzonRateLimiter(limiter)), logger)
	}

	runner := &batch.Runner{
		Ledger: deps.Ledger,
		Fetcher: &batch.Fetcher{
			Ozon:                   ozon,
			Wildberries:            rod.NewLoggingFetcher(wb, logger),
			Retry:                  batch.RetryPolicy{},
			OzonConcurrency:        cycle.Concurrency,
			WildberriesConcurrency: cycle.Concurrency,
			Logger:                 logger,
		},
		Exporter:  &batch.Exporter{Ledger: deps.Ledger, Logger: logger},
		Resolver:  resolver,
		CartProbe: cycle.Browser && cycle.CartProbe,
		Logger:    logger,
	}

	return runner, cleanup, nil
}

func defaultDBPath() string {
	if path := os.Getenv("SHELFWATCH_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "shelfwatch.db"
	}
	dir := filepath.Join(home, ".shelfwatch")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "shelfwatch.db")
}

func logLevel() slog.Level {
	if os.Getenv("SHELFWATCH_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func envInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
