package main

import (
	"fmt"
)

// Run executes the purge command.
func (c *PurgeCmd) Run(deps *Dependencies) error {
	var n int
	var err error
	if c.All {
		n, err = deps.Cache.DeleteAll(deps.Ctx)
	} else {
		n, err = deps.Cache.DeleteExpired(deps.Ctx)
	}
	if err != nil {
		return printError(deps, err)
	}

	stats, err := deps.Cache.Stats(deps.Ctx)
	if err != nil {
		return printError(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d cache entries, %d remain (%d fields)\n", n, stats.Keys, stats.Fields)
	return nil
}
