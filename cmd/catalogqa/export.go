package main

import (
	"fmt"

	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	index, err := deps.Indexer.BuildIndex(deps.Ctx)
	if err != nil {
		return printError(deps, err)
	}
	links := index.Links()

	exporter := fs.NewExporter(c.Dir, c.Name)
	saved := 0
	for _, link := range links {
		page, err := deps.Contents.GetContent(deps.Ctx, link.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", link.URL, catalogqa.ErrorMessage(err))
			continue
		}
		if err := exporter.Save(deps.Ctx, page, link.Text); err != nil {
			_ = exporter.Abort()
			return printError(deps, err)
		}
		saved++
	}

	if saved == 0 {
		_ = exporter.Abort()
		return printError(deps, catalogqa.Errorf(catalogqa.EEMPTY, "no catalog pages could be exported"))
	}
	if err := exporter.Commit(); err != nil {
		return printError(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Exported %d of %d pages to %s\n", saved, len(links), exporter.Dir())
	return nil
}
