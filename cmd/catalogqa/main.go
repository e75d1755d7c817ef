package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/gemini"
	"github.com/fwojciec/catalogqa/goquery"
	"github.com/fwojciec/catalogqa/htmltomarkdown"
	catalogqahttp "github.com/fwojciec/catalogqa/http"
	"github.com/fwojciec/catalogqa/rag"
	catalogqaslog "github.com/fwojciec/catalogqa/slog"
	"github.com/fwojciec/catalogqa/sqlite"
	"github.com/fwojciec/catalogqa/uniseg"
	"github.com/fwojciec/catalogqa/yaml"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Catalog profile path. Empty selects the built-in catalog.
	SourcePath string

	// Gemini API key. Required by commands that embed or generate.
	APIKey string

	// SQLite database backing the cache.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults taken from the
// environment.
func NewMain() *Main {
	return &Main{
		DBPath:     defaultDBPath(),
		SourcePath: os.Getenv("CATALOGQA_SOURCE"),
		APIKey:     os.Getenv("GEMINI_API_KEY"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("catalogqa"),
		kong.Description("Answer questions about a course catalog."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'catalogqa --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	src, err := yaml.LoadSource(m.SourcePath)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Set CATALOGQA_SOURCE to a catalog profile or leave it empty for the built-in catalog\n")
		return fmt.Errorf("failed to load catalog profile: %w", err)
	}
	deps.Source = src

	if m.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(m.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CATALOGQA_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cli.logLevel()}))
	deps.Logger = logger
	deps.Cache = sqlite.NewCache(m.DB, sqlite.WithTTL(cli.CacheTTL))

	if cmd == "purge" {
		return kongCtx.Run(deps)
	}

	fetcher := catalogqaslog.NewLoggingFetcher(
		catalogqahttp.NewFetcher(catalogqahttp.WithTimeout(cli.Timeout)),
		logger,
	)
	defer fetcher.Close()

	indexer := catalogqaslog.NewLoggingIndexer(&rag.Indexer{
		Source:      src,
		Fetcher:     fetcher,
		Parser:      goquery.NewListingParser(src.BaseURL, src.ListingSelector),
		CallTimeout: cli.Timeout,
	}, logger)
	deps.Indexer = indexer

	if cmd == "links" {
		return kongCtx.Run(deps)
	}

	var limiter catalogqa.DomainLimiter
	if cli.RateLimit > 0 {
		limiter = rag.NewDomainLimiter(cli.RateLimit, 1)
	}

	contents := &rag.ContentStore{
		Cache:       deps.Cache,
		Fetcher:     fetcher,
		Extractor:   goquery.NewRegionExtractor(src.ContentSelector),
		Converter:   htmltomarkdown.NewConverter(htmltomarkdown.WithDomain(src.BaseURL)),
		RateLimiter: limiter,
		CallTimeout: cli.Timeout,
		Logger:      logger,
	}
	deps.Contents = contents

	if cmd == "export" {
		return kongCtx.Run(deps)
	}

	if m.APIKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	embedder := catalogqaslog.NewLoggingEmbedder(gemini.NewEmbedder(client,
		gemini.WithEmbeddingModel(cli.EmbedModel),
		gemini.WithDimensions(cli.EmbedDims),
	), logger)

	chunks := &rag.ChunkStore{
		Cache: deps.Cache,
		Splitter: uniseg.NewSplitter(
			uniseg.WithMaxLength(cli.ChunkSize),
			uniseg.WithOverlap(cli.ChunkOverlap),
		),
		Embedder:    embedder,
		CallTimeout: cli.Timeout,
		Logger:      logger,
	}

	if cmd == "warm" {
		tokenCounter, err := gemini.NewTokenCounter(cli.Model)
		if err != nil {
			logger.Warn("counting tokens with default tokenizer", "model", cli.Model, "error", catalogqa.ErrorMessage(err))
			if tokenCounter, err = gemini.NewTokenCounter(""); err != nil {
				return fmt.Errorf("failed to create token counter: %w", err)
			}
		}
		deps.Warmer = &rag.Warmer{
			Indexer:      indexer,
			Contents:     contents,
			Chunks:       chunks,
			TokenCounter: tokenCounter,
			Concurrency:  cli.Warm.Concurrency,
			Logger:       logger,
		}
		return kongCtx.Run(deps)
	}

	deps.Answerer = &rag.Answerer{
		Indexer: indexer,
		Selector: catalogqaslog.NewLoggingSelector(gemini.NewSelector(client,
			gemini.WithSelectorModel(cli.Model),
			gemini.WithMaxSources(cli.MaxSources),
		), logger),
		Embedder:    embedder,
		Contents:    contents,
		Chunks:      chunks,
		Generator:   catalogqaslog.NewLoggingGenerator(gemini.NewGenerator(client, cli.Model), logger),
		MaxSources:  cli.MaxSources,
		CallTimeout: cli.Timeout,
		Refusal:     src.Refusal,
		Logger:      logger,
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("CATALOGQA_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "catalogqa.db"
	}
	return filepath.Join(home, ".catalogqa", "cache.db")
}

// printError prints the user-facing message of err and returns err.
func printError(deps *Dependencies, err error) error {
	fmt.Fprintf(deps.Stderr, "error: %s\n", catalogqa.ErrorMessage(err))
	return err
}
