package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/catalogqa"
)

// Ensure LoggingSelector implements catalogqa.Selector.
var _ catalogqa.Selector = (*LoggingSelector)(nil)

// LoggingSelector wraps a Selector with logging of the raw selection.
type LoggingSelector struct {
	next   catalogqa.Selector
	logger *slog.Logger
}

// NewLoggingSelector creates a new LoggingSelector.
func NewLoggingSelector(next catalogqa.Selector, logger *slog.Logger) *LoggingSelector {
	return &LoggingSelector{next: next, logger: logger}
}

// Select delegates to the wrapped selector and logs the operation.
func (s *LoggingSelector) Select(ctx context.Context, question string, links []catalogqa.CatalogLink) (resp string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("link selection",
			"links", len(links),
			"response", resp,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Select(ctx, question, links)
}

// Ensure LoggingGenerator implements catalogqa.Generator.
var _ catalogqa.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator wraps a Generator with logging.
type LoggingGenerator struct {
	next   catalogqa.Generator
	logger *slog.Logger
}

// NewLoggingGenerator creates a new LoggingGenerator.
func NewLoggingGenerator(next catalogqa.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

// Generate delegates to the wrapped generator and logs the operation.
func (g *LoggingGenerator) Generate(ctx context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (answer string, err error) {
	defer func(begin time.Time) {
		g.logger.Info("answer generation",
			"contexts", len(contexts),
			"sources", len(urls),
			"chars", len(answer),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.Generate(ctx, question, contexts, urls)
}
