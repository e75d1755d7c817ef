package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/catalogqa"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages warmed at once.
const DefaultConcurrency = 4

// Warmer fills the cache ahead of questions by fetching, chunking, and
// embedding every page in the link index.
type Warmer struct {
	Indexer      catalogqa.LinkIndexer
	Contents     catalogqa.ContentStore
	Chunks       catalogqa.ChunkStore
	TokenCounter catalogqa.TokenCounter
	Concurrency  int
	RetryDelays  []time.Duration
	Logger       *slog.Logger
}

// Result holds the outcome of a warm operation.
type Result struct {
	Pages  int
	Failed int
	Chunks int
	Bytes  int
	Tokens int
}

// ProgressEvent reports progress during a warm operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting warm progress.
type ProgressFunc func(event ProgressEvent)

// warmResult holds the outcome of warming a single page.
type warmResult struct {
	url     string
	content string
	chunks  int
	err     error
}

// Warm warms every indexed page. Pages that fail are counted and reported
// through progress; only a failure to build the index is returned.
func (w *Warmer) Warm(ctx context.Context, progress ProgressFunc) (*Result, error) {
	index, err := w.Indexer.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	links := index.Links()

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan warmResult, len(links))

	var completed atomic.Int64
	total := len(links)

	if progress != nil {
		progress(ProgressEvent{
			Type:  ProgressStarted,
			Total: total,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, link := range links {
			g.Go(func() error {
				resultCh <- w.warmPage(gctx, link.URL)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	var result Result
	for r := range resultCh {
		completed.Add(1)

		if r.err != nil {
			result.Failed++
			logger(w.Logger).Warn("warm failed", "url", r.url, "code", catalogqa.ErrorCode(r.err), "error", catalogqa.ErrorMessage(r.err))
			if progress != nil {
				progress(ProgressEvent{
					Type:      ProgressFailed,
					Completed: int(completed.Load()),
					Total:     total,
					URL:       r.url,
					Error:     r.err,
				})
			}
			continue
		}

		result.Pages++
		result.Chunks += r.chunks
		result.Bytes += len(r.content)
		if w.TokenCounter != nil {
			if tokens, err := w.TokenCounter.CountTokens(ctx, r.content); err == nil {
				result.Tokens += tokens
			}
		}

		if progress != nil {
			progress(ProgressEvent{
				Type:      ProgressCompleted,
				Completed: int(completed.Load()),
				Total:     total,
				URL:       r.url,
			})
		}
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: total,
			Total:     total,
		})
	}

	return &result, nil
}

// warmPage runs content, chunking, and embedding for one page, retrying
// transient failures.
func (w *Warmer) warmPage(ctx context.Context, pageURL string) warmResult {
	delays := w.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	log := func(format string, args ...any) {
		logger(w.Logger).Info("retrying warm", "url", pageURL, "reason", fmt.Sprintf(format, args...))
	}

	r, err := WithRetry(ctx, func(ctx context.Context) (warmResult, error) {
		page, err := w.Contents.GetContent(ctx, pageURL)
		if err != nil {
			return warmResult{}, err
		}
		chunks, err := w.Chunks.GetChunks(ctx, page)
		if err != nil {
			return warmResult{}, err
		}
		if err := w.Chunks.EnsureEmbeddings(ctx, page, chunks); err != nil {
			return warmResult{}, err
		}
		return warmResult{url: pageURL, content: page.Content, chunks: len(chunks)}, nil
	}, Retryable, delays, log)
	if err != nil {
		return warmResult{url: pageURL, err: err}
	}
	return r
}
