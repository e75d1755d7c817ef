package main

import (
	"encoding/json"
	"fmt"
)

// Run executes the links command.
func (c *LinksCmd) Run(deps *Dependencies) error {
	index, err := deps.Indexer.BuildIndex(deps.Ctx)
	if err != nil {
		return printError(deps, err)
	}
	links := index.Links()

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(links)
	}

	for _, link := range links {
		fmt.Fprintf(deps.Stdout, "%s  %s\n", link.URL, link.Text)
	}
	return nil
}
