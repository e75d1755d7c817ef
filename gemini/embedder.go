package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/catalogqa"
	"google.golang.org/genai"
)

// Ensure Embedder implements catalogqa.Embedder at compile time.
var _ catalogqa.Embedder = (*Embedder)(nil)

// Embedder implements catalogqa.Embedder using Gemini embedding models.
// Every vector it returns has exactly the configured dimension.
type Embedder struct {
	client *genai.Client
	model  string
	dims   int32
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) EmbedderOption {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions sets the output dimensionality.
func WithDimensions(dims int) EmbedderOption {
	return func(e *Embedder) {
		e.dims = int32(dims)
	}
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		client: client,
		model:  DefaultEmbeddingModel,
		dims:   DefaultEmbeddingDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the length of every vector Embed returns.
func (e *Embedder) Dimensions() int {
	return int(e.dims)
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, catalogqa.Errorf(catalogqa.EEMBED, "text required")
	}
	if e.dims <= 0 {
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "embedding dimensions must be positive")
	}

	dims := e.dims
	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, "user")},
		&genai.EmbedContentConfig{OutputDimensionality: &dims},
	)
	if err != nil {
		return nil, callError(catalogqa.EEMBED, "embed content", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, catalogqa.Errorf(catalogqa.EEMBED, "gemini returned no embedding")
	}

	values := resp.Embeddings[0].Values
	if len(values) != int(e.dims) {
		return nil, catalogqa.Errorf(catalogqa.EEMBED, "embedding has %d dimensions, want %d", len(values), e.dims)
	}

	return values, nil
}
