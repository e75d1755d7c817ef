package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/rag"
	"github.com/fwojciec/catalogqa/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Source   *catalogqa.Source
	Cache    *sqlite.Cache
	Indexer  catalogqa.LinkIndexer
	Contents catalogqa.ContentStore
	Answerer catalogqa.Answerer
	Warmer   *rag.Warmer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ChunkSize    int           `name:"chunk-size" default:"1000" help:"Maximum chunk length in runes"`
	ChunkOverlap int           `name:"chunk-overlap" default:"0" help:"Runes of trailing sentences repeated in the next chunk"`
	MaxSources   int           `name:"max-sources" default:"2" help:"Catalog pages selected per question"`
	Timeout      time.Duration `default:"30s" help:"Timeout for each external call"`
	RateLimit    float64       `name:"rate-limit" default:"2" help:"Page fetches per second per host (0 disables the limit)"`
	Model        string        `default:"gemini-2.5-flash" help:"Gemini model for selection and answers"`
	EmbedModel   string        `name:"embed-model" default:"gemini-embedding-001" help:"Gemini embedding model"`
	EmbedDims    int           `name:"embed-dims" default:"768" help:"Embedding dimensions"`
	CacheTTL     time.Duration `name:"cache-ttl" env:"CATALOGQA_CACHE_TTL" default:"168h" help:"Cache entry lifetime (0 keeps entries forever)"`
	Verbose      bool          `short:"v" help:"Log every external call"`

	Serve  ServeCmd  `cmd:"" help:"Serve questions over HTTP"`
	Ask    AskCmd    `cmd:"" help:"Answer a single question"`
	Links  LinksCmd  `cmd:"" help:"Print the catalog link index"`
	Warm   WarmCmd   `cmd:"" help:"Fetch, chunk, and embed every catalog page"`
	Export ExportCmd `cmd:"" help:"Write every catalog page to a directory as markdown"`
	Purge  PurgeCmd  `cmd:"" help:"Delete expired cache entries"`
}

func (c *CLI) logLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Host string `default:"127.0.0.1" help:"Address to listen on"`
	Port int    `env:"PORT" default:"8000" help:"Port to listen on"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask about the catalog"`
	Sources  bool   `short:"s" help:"Print the pages the answer was drawn from"`
}

// LinksCmd is the "links" subcommand.
type LinksCmd struct {
	JSON bool `help:"Print the index as JSON"`
}

// WarmCmd is the "warm" subcommand.
type WarmCmd struct {
	Concurrency int `short:"c" default:"4" help:"Concurrent page limit"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Dir  string `arg:"" type:"path" help:"Parent directory of the export"`
	Name string `default:"catalog" help:"Name of the export directory"`
}

// PurgeCmd is the "purge" subcommand.
type PurgeCmd struct {
	All bool `help:"Delete every cache entry, not only expired ones"`
}
