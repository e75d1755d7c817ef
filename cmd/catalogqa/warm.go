package main

import (
	"fmt"

	"github.com/fwojciec/catalogqa/rag"
)

// Run executes the warm command.
func (c *WarmCmd) Run(deps *Dependencies) error {
	if c.Concurrency > 0 {
		deps.Warmer.Concurrency = c.Concurrency
	}

	progress := func(event rag.ProgressEvent) {
		switch event.Type {
		case rag.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Found %d pages\n", event.Total)
		case rag.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] %s\n", event.Completed, event.Total, rag.TruncateURL(event.URL, 70))
		case rag.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
		case rag.ProgressFinished:
			// Summary printed after warm completes
		}
	}

	result, err := deps.Warmer.Warm(deps.Ctx, progress)
	if err != nil {
		return printError(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "  Warmed %s\n", rag.FormatResult(result))
	return nil
}
