package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/catalogqa"
)

// Ensure LoggingIndexer implements catalogqa.LinkIndexer.
var _ catalogqa.LinkIndexer = (*LoggingIndexer)(nil)

// LoggingIndexer wraps a LinkIndexer with logging.
type LoggingIndexer struct {
	next   catalogqa.LinkIndexer
	logger *slog.Logger
}

// NewLoggingIndexer creates a new LoggingIndexer.
func NewLoggingIndexer(next catalogqa.LinkIndexer, logger *slog.Logger) *LoggingIndexer {
	return &LoggingIndexer{next: next, logger: logger}
}

// BuildIndex delegates to the wrapped indexer and logs the operation.
func (i *LoggingIndexer) BuildIndex(ctx context.Context) (index catalogqa.LinkIndex, err error) {
	defer func(begin time.Time) {
		i.logger.Info("link index",
			"count", len(index),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.BuildIndex(ctx)
}
