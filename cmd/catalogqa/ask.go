package main

import (
	"fmt"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	answer, err := deps.Answerer.Answer(deps.Ctx, c.Question)
	if err != nil {
		return printError(deps, err)
	}

	fmt.Fprintln(deps.Stdout, answer.Text)

	if c.Sources && len(answer.Sources) > 0 {
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Sources:")
		for _, u := range answer.Sources {
			fmt.Fprintf(deps.Stdout, "  %s\n", u)
		}
	}
	return nil
}
