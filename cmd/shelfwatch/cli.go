package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/batch"
	"github.com/akarpov/shelfwatch/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Ledger is the selected backend, wrapped with logging.
	Ledger shelfwatch.Ledger

	// URLStore exposes URL management; only set for the sqlite backend.
	URLStore *sqlite.LedgerService

	// Runner is set for the cycle commands.
	Runner *batch.Runner
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Ledger string `default:"sqlite" enum:"sqlite,sheets" help:"Ledger backend"`

	Update UpdateCmd `cmd:"" help:"Run one tracking cycle"`
	Watch  WatchCmd  `cmd:"" help:"Run tracking cycles on a daily schedule"`
	Urls   UrlsCmd   `cmd:"" help:"List or edit the tracked URLs"`
}

// CycleFlags are shared by the commands that run fetch cycles.
type CycleFlags struct {
	FixRedirects bool    `help:"Canonicalize redirected URLs and write corrections back"`
	Browser      bool    `help:"Use the browser strategy for Ozon instead of the direct API"`
	CartProbe    bool    `help:"Read the aggregate cart after the Ozon batch (browser only)"`
	Concurrency  int     `short:"c" default:"2" help:"Concurrent fetch limit per marketplace"`
	RPS          float64 `default:"1" help:"Requests per second per marketplace domain"`
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct {
	Cycle CycleFlags `embed:""`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct {
	Cycle     CycleFlags `embed:""`
	At        string     `default:"07:00" help:"Daily run time (HH:MM, local)"`
	Immediate bool       `help:"Run one cycle right after launch"`
}

// UrlsCmd is the "urls" subcommand.
type UrlsCmd struct {
	Add    string `help:"Track a new URL (sqlite ledger only)"`
	Remove string `help:"Stop tracking a URL (sqlite ledger only)"`
}
