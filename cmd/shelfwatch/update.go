package main

import (
	"fmt"

	"github.com/akarpov/shelfwatch"
)

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	result, err := deps.Runner.Run(deps.Ctx, c.Cycle.FixRedirects)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shelfwatch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Updated %d rows (%d fetched, %d URLs corrected)\n",
		result.Rows, result.Fetched, result.Corrected)
	return nil
}
