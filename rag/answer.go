package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/catalogqa"
	"golang.org/x/sync/errgroup"
)

var _ catalogqa.Answerer = (*Answerer)(nil)

// Answerer answers catalog questions in a single retrieval pass: select the
// relevant pages, retrieve the best excerpt from each concurrently, then
// generate an answer grounded in those excerpts.
type Answerer struct {
	Indexer   catalogqa.LinkIndexer
	Selector  catalogqa.Selector
	Embedder  catalogqa.Embedder
	Contents  catalogqa.ContentStore
	Chunks    catalogqa.ChunkStore
	Generator catalogqa.Generator

	// MaxSources caps the number of pages used per question.
	// Defaults to catalogqa.DefaultMaxSources.
	MaxSources int

	// CallTimeout bounds each selection, question embedding, and
	// generation call. Zero means no per-call deadline.
	CallTimeout time.Duration

	// Refusal is the answer text when no page applies.
	// Defaults to catalogqa.DefaultRefusal.
	Refusal string

	Logger *slog.Logger
}

// Answer answers question from catalog content.
func (a *Answerer) Answer(ctx context.Context, question string) (*catalogqa.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "question required")
	}

	index, err := a.Indexer.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := a.selectLinks(ctx, question, index)
	if err != nil {
		return nil, err
	}
	if catalogqa.IsNotApplicable(resp) {
		return &catalogqa.Answer{Text: a.refusal(), Refused: true}, nil
	}

	urls := catalogqa.ParseSelection(resp, index, a.maxSources())
	if len(urls) == 0 {
		logger(a.Logger).Warn("selection matched no catalog links", "response", resp)
		return insufficient(), nil
	}

	qvec, err := a.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	contexts := a.retrieveAll(ctx, urls, index, qvec)
	// Pages skipped because the caller gave up are not an insufficient answer.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(contexts) == 0 {
		return insufficient(), nil
	}

	text, err := a.generate(ctx, question, contexts, urls)
	if err != nil {
		return nil, err
	}

	sources := make([]string, len(contexts))
	for i, c := range contexts {
		sources[i] = c.URL
	}
	return &catalogqa.Answer{Text: text, Sources: sources}, nil
}

func (a *Answerer) selectLinks(ctx context.Context, question string, index catalogqa.LinkIndex) (string, error) {
	ctx, cancel := withTimeout(ctx, a.CallTimeout)
	defer cancel()

	resp, err := a.Selector.Select(ctx, question, index.Links())
	if err != nil {
		return "", generationError("link selection", err)
	}
	return resp, nil
}

func (a *Answerer) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, a.CallTimeout)
	defer cancel()

	qvec, err := a.Embedder.Embed(ctx, question)
	if err != nil {
		if catalogqa.IsTimeout(err) {
			return nil, catalogqa.Errorf(catalogqa.ETIMEOUT, "question embedding timed out")
		}
		if code := catalogqa.ErrorCode(err); code != catalogqa.EEMBED {
			return nil, catalogqa.Errorf(catalogqa.EEMBED, "question embedding: %s", catalogqa.ErrorMessage(err))
		}
		return nil, err
	}
	return qvec, nil
}

func (a *Answerer) generate(ctx context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (string, error) {
	ctx, cancel := withTimeout(ctx, a.CallTimeout)
	defer cancel()

	text, err := a.Generator.Generate(ctx, question, contexts, urls)
	if err != nil {
		return "", generationError("answer generation", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", catalogqa.Errorf(catalogqa.EGENERATE, "answer generation returned no text")
	}
	return text, nil
}

// retrieveAll runs the per-page pipelines concurrently and returns the
// contexts that succeeded in selection order. Failed pages are logged and
// skipped.
func (a *Answerer) retrieveAll(ctx context.Context, urls []string, index catalogqa.LinkIndex, qvec []float32) []catalogqa.SourceContext {
	results := make([]*catalogqa.SourceContext, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			log := func(format string, args ...any) {
				logger(a.Logger).Info("retrying source", "url", u, "reason", fmt.Sprintf(format, args...))
			}
			sc, err := WithRetry(ctx, func(ctx context.Context) (*catalogqa.SourceContext, error) {
				return a.retrieve(ctx, index[u], qvec)
			}, catalogqa.IsTimeout, RetryOnce(), log)
			if err != nil {
				logger(a.Logger).Warn("skipping source", "url", u, "code", catalogqa.ErrorCode(err), "error", catalogqa.ErrorMessage(err))
				return nil
			}
			results[i] = sc
			return nil
		})
	}
	_ = g.Wait()

	var contexts []catalogqa.SourceContext
	for _, sc := range results {
		if sc != nil {
			contexts = append(contexts, *sc)
		}
	}
	return contexts
}

// retrieve produces the best-matching excerpt of one page.
func (a *Answerer) retrieve(ctx context.Context, link catalogqa.CatalogLink, qvec []float32) (*catalogqa.SourceContext, error) {
	page, err := a.Contents.GetContent(ctx, link.URL)
	if err != nil {
		return nil, err
	}

	chunks, err := a.Chunks.GetChunks(ctx, page)
	if err != nil {
		return nil, err
	}

	if err := a.Chunks.EnsureEmbeddings(ctx, page, chunks); err != nil {
		return nil, err
	}

	result, err := catalogqa.Retrieve(qvec, catalogqa.ChunkMap(chunks))
	if err != nil {
		return nil, err
	}

	return &catalogqa.SourceContext{
		URL:     link.URL,
		Title:   link.Text,
		Context: result.Context,
	}, nil
}

func (a *Answerer) maxSources() int {
	if a.MaxSources <= 0 {
		return catalogqa.DefaultMaxSources
	}
	return a.MaxSources
}

func (a *Answerer) refusal() string {
	if a.Refusal == "" {
		return catalogqa.DefaultRefusal
	}
	return a.Refusal
}

func insufficient() *catalogqa.Answer {
	return &catalogqa.Answer{Text: catalogqa.InsufficientMessage, Insufficient: true}
}

// generationError classifies a language model failure as ETIMEOUT or
// EGENERATE.
func generationError(op string, err error) error {
	if catalogqa.IsTimeout(err) {
		return catalogqa.Errorf(catalogqa.ETIMEOUT, "%s timed out", op)
	}
	return catalogqa.Errorf(catalogqa.EGENERATE, "%s: %s", op, catalogqa.ErrorMessage(err))
}
