package mock

import (
	"context"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.Selector = (*Selector)(nil)

// Selector is a mock implementation of catalogqa.Selector.
type Selector struct {
	SelectFn func(ctx context.Context, question string, links []catalogqa.CatalogLink) (string, error)
}

func (s *Selector) Select(ctx context.Context, question string, links []catalogqa.CatalogLink) (string, error) {
	return s.SelectFn(ctx, question, links)
}

var _ catalogqa.Generator = (*Generator)(nil)

// Generator is a mock implementation of catalogqa.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (string, error)
}

func (g *Generator) Generate(ctx context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (string, error) {
	return g.GenerateFn(ctx, question, contexts, urls)
}

var _ catalogqa.Answerer = (*Answerer)(nil)

// Answerer is a mock implementation of catalogqa.Answerer.
type Answerer struct {
	AnswerFn func(ctx context.Context, question string) (*catalogqa.Answer, error)
}

func (a *Answerer) Answer(ctx context.Context, question string) (*catalogqa.Answer, error) {
	return a.AnswerFn(ctx, question)
}
