package main

import (
	"fmt"
	"time"

	"github.com/akarpov/shelfwatch"
)

// Run executes the watch command: one cycle per day at the configured
// time, until the context is canceled.
func (c *WatchCmd) Run(deps *Dependencies) error {
	at, err := parseClock(c.At)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shelfwatch.ErrorMessage(err))
		return err
	}

	if c.Immediate {
		c.runCycle(deps)
	}

	for {
		wait := untilNext(time.Now(), at)
		deps.Logger.Info("waiting for next cycle", "at", c.At, "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-deps.Ctx.Done():
			timer.Stop()
			return deps.Ctx.Err()
		case <-timer.C:
		}

		c.runCycle(deps)
	}
}

// runCycle runs one cycle. Failures are logged, not fatal: the watch
// loop keeps its schedule.
func (c *WatchCmd) runCycle(deps *Dependencies) {
	result, err := deps.Runner.Run(deps.Ctx, c.Cycle.FixRedirects)
	if err != nil {
		deps.Logger.Error("cycle failed", "error", err)
		return
	}
	fmt.Fprintf(deps.Stdout, "Updated %d rows (%d fetched, %d URLs corrected)\n",
		result.Rows, result.Fetched, result.Corrected)
}

// parseClock parses an HH:MM wall-clock time.
func parseClock(value string) (time.Time, error) {
	at, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, shelfwatch.Errorf(shelfwatch.EINVALID, "invalid time %q, expected HH:MM", value)
	}
	return at, nil
}

// untilNext returns the duration from now to the next occurrence of the
// given wall-clock time.
func untilNext(now, at time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
