package mock

import (
	"context"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.Splitter = (*Splitter)(nil)

// Splitter is a mock implementation of catalogqa.Splitter.
type Splitter struct {
	SplitFn func(text string) ([]string, error)
}

func (s *Splitter) Split(text string) ([]string, error) {
	return s.SplitFn(text)
}

var _ catalogqa.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is a mock implementation of catalogqa.ChunkStore.
type ChunkStore struct {
	GetChunksFn        func(ctx context.Context, page *catalogqa.PageContent) ([]*catalogqa.Chunk, error)
	EnsureEmbeddingsFn func(ctx context.Context, page *catalogqa.PageContent, chunks []*catalogqa.Chunk) error
}

func (s *ChunkStore) GetChunks(ctx context.Context, page *catalogqa.PageContent) ([]*catalogqa.Chunk, error) {
	return s.GetChunksFn(ctx, page)
}

func (s *ChunkStore) EnsureEmbeddings(ctx context.Context, page *catalogqa.PageContent, chunks []*catalogqa.Chunk) error {
	return s.EnsureEmbeddingsFn(ctx, page, chunks)
}

var _ catalogqa.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of catalogqa.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, text string) ([]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}
