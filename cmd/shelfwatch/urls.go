package main

import (
	"fmt"

	"github.com/akarpov/shelfwatch"
)

// Run executes the urls command.
func (c *UrlsCmd) Run(deps *Dependencies) error {
	if c.Add != "" || c.Remove != "" {
		if deps.URLStore == nil {
			fmt.Fprintf(deps.Stderr, "error: URL editing requires the sqlite ledger\n")
			return shelfwatch.Errorf(shelfwatch.EINVALID, "URL editing requires the sqlite ledger")
		}

		if c.Add != "" {
			if shelfwatch.MarketplaceOf(c.Add) == shelfwatch.MarketplaceUnknown {
				fmt.Fprintf(deps.Stderr, "error: unrecognized marketplace URL %q\n", c.Add)
				return shelfwatch.Errorf(shelfwatch.EINVALID, "unrecognized marketplace URL %q", c.Add)
			}
			if err := deps.URLStore.AddURL(deps.Ctx, c.Add); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", shelfwatch.ErrorMessage(err))
				return err
			}
			fmt.Fprintf(deps.Stdout, "Tracking %s\n", c.Add)
		}

		if c.Remove != "" {
			if err := deps.URLStore.RemoveURL(deps.Ctx, c.Remove); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", shelfwatch.ErrorMessage(err))
				return err
			}
			fmt.Fprintf(deps.Stdout, "Stopped tracking %s\n", c.Remove)
		}

		return nil
	}

	urls, err := deps.Ledger.ReadURLs(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shelfwatch.ErrorMessage(err))
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintln(deps.Stdout, "No tracked URLs. Use 'shelfwatch urls --add' to track one.")
		return nil
	}

	for i, url := range urls {
		fmt.Fprintf(deps.Stdout, "%3d  %s\n", i+1, url)
	}

	return nil
}
