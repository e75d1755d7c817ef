package catalogqa

import "context"

// Chunk is a bounded, contiguous span of a page's text and its embedding.
// Indices of a page's chunks run from 0 to N-1 without gaps; adjacent
// indices are adjacent in the source text.
type Chunk struct {
	Index     int       `json:"chunkIndex"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.Index < 0 {
		return Errorf(EINVALID, "chunk index must not be negative")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "chunk text required")
	}
	return nil
}

// HasEmbedding reports whether the chunk carries a computed embedding.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Splitter splits text into ordered segments of bounded length.
type Splitter interface {
	// Split returns the segments of text in order.
	// Returns ECHUNK if the text is empty or cannot be split.
	Split(text string) ([]string, error)
}

// ChunkStore manages the chunks of catalog pages.
type ChunkStore interface {
	// GetChunks returns the page's chunks ordered by index. Pages are split
	// once; later calls read the existing chunks back without rewriting them.
	GetChunks(ctx context.Context, page *PageContent) ([]*Chunk, error)

	// EnsureEmbeddings computes and caches embeddings for chunks that lack
	// one. Chunks whose embedding fails are left without one. The returned
	// error joins per-chunk failures; the chunks are updated in place.
	EnsureEmbeddings(ctx context.Context, page *PageContent, chunks []*Chunk) error
}
