package catalogqa

import (
	"math"
	"sort"
	"strings"
)

// ContextSeparator joins a retrieved chunk with its neighbors.
const ContextSeparator = "\n\n"

// RetrievalResult is the best-matching chunk of a page.
type RetrievalResult struct {
	// Index and Text identify the best-scoring chunk.
	Index int
	Text  string
	Score float64

	// Context is the best chunk joined with its immediate neighbors
	// in index order.
	Context string
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|), in the range [-1, 1].
// Returns EINVALID if the vectors are empty, differ in length, or either
// has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, Errorf(EINVALID, "empty vector")
	}
	if len(a) != len(b) {
		return 0, Errorf(EINVALID, "vector dimensions differ: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, Errorf(EINVALID, "zero-magnitude vector")
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Rounding can push identical vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// Retrieve scores every chunk against the question vector and returns the
// best match expanded with the chunks immediately before and after it.
//
// Chunks are scanned in ascending index order and only a strictly higher
// score replaces the current best, so ties go to the lowest index. Chunks
// without a usable embedding are skipped. Returns EEMPTY if no chunk could
// be scored and EINVALID if the question vector has zero magnitude.
func Retrieve(question []float32, chunks map[int]*Chunk) (*RetrievalResult, error) {
	if len(chunks) == 0 {
		return nil, Errorf(EEMPTY, "no chunks to retrieve from")
	}
	if isZero(question) {
		return nil, Errorf(EINVALID, "zero-magnitude question vector")
	}

	indices := make([]int, 0, len(chunks))
	for i := range chunks {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	best := -1
	bestScore := math.Inf(-1)
	for _, i := range indices {
		chunk := chunks[i]
		if chunk == nil || !chunk.HasEmbedding() {
			continue
		}
		score, err := CosineSimilarity(question, chunk.Embedding)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil, Errorf(EEMPTY, "no chunk has a usable embedding")
	}

	parts := make([]string, 0, 3)
	if prev, ok := chunks[best-1]; ok && prev != nil {
		parts = append(parts, prev.Text)
	}
	parts = append(parts, chunks[best].Text)
	if next, ok := chunks[best+1]; ok && next != nil {
		parts = append(parts, next.Text)
	}

	return &RetrievalResult{
		Index:   best,
		Text:    chunks[best].Text,
		Score:   bestScore,
		Context: strings.Join(parts, ContextSeparator),
	}, nil
}

// ChunkMap indexes chunks by their index.
func ChunkMap(chunks []*Chunk) map[int]*Chunk {
	m := make(map[int]*Chunk, len(chunks))
	for _, c := range chunks {
		m[c.Index] = c
	}
	return m
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
