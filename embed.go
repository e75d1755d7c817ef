package catalogqa

import "context"

// Embedder maps text to a fixed-dimension vector.
// Identical input yields identical vectors for the same model.
type Embedder interface {
	// Embed returns the embedding of text.
	// Returns EEMBED for empty text or backend failure.
	Embed(ctx context.Context, text string) ([]float32, error)
}
