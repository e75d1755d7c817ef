package rag

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.ChunkStore = (*ChunkStore)(nil)

// ChunkStore splits pages into chunks once and keeps their embeddings in
// the cache.
//
// A split writes every chunk and then the chunk count. A stored set is used
// only when the count is present and the chunk fields cover exactly
// 0..count-1; anything else, such as a set that expired while embeddings
// were being written, is split again. Concurrent splits of the same page
// write identical records.
type ChunkStore struct {
	Cache       catalogqa.Cache
	Splitter    catalogqa.Splitter
	Embedder    catalogqa.Embedder
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// GetChunks returns the chunks of page ordered by index.
func (s *ChunkStore) GetChunks(ctx context.Context, page *catalogqa.PageContent) ([]*catalogqa.Chunk, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := ChunkKey(page)
	chunks, err := s.cached(ctx, key)
	if err != nil {
		return nil, err
	}
	if chunks != nil {
		return chunks, nil
	}

	segments, err := s.Splitter.Split(page.Content)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, catalogqa.Errorf(catalogqa.ECHUNK, "page %s produced no chunks", page.URL)
	}

	chunks = make([]*catalogqa.Chunk, len(segments))
	for i, text := range segments {
		chunks[i] = &catalogqa.Chunk{Index: i, Text: text}
	}

	for _, chunk := range chunks {
		if err := s.write(ctx, key, chunk); err != nil {
			return nil, err
		}
	}
	count, err := catalogqa.MarshalChunkSet(len(chunks))
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, key, ChunkCountField, count); err != nil {
		return nil, err
	}

	return chunks, nil
}

// cached reads back a complete chunk set, or returns nil if the page has
// not been split or the stored set is unusable.
func (s *ChunkStore) cached(ctx context.Context, key string) ([]*catalogqa.Chunk, error) {
	fields, err := s.Cache.GetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	data, ok := fields[ChunkCountField]
	if !ok {
		return nil, nil
	}
	count, err := catalogqa.UnmarshalChunkSet(data)
	if err != nil {
		logger(s.Logger).Warn("discarding cached chunks", "key", key, "error", err)
		return nil, nil
	}
	if len(fields) != count+1 {
		logger(s.Logger).Warn("discarding cached chunks", "key", key, "count", count, "stored", len(fields)-1)
		return nil, nil
	}

	chunks := make([]*catalogqa.Chunk, count)
	for field, data := range fields {
		if field == ChunkCountField {
			continue
		}
		index, err := strconv.Atoi(field)
		if err != nil || index < 0 || index >= count {
			logger(s.Logger).Warn("discarding cached chunks", "key", key, "field", field)
			return nil, nil
		}

		chunk, err := catalogqa.UnmarshalChunk(data)
		if err != nil || chunk.Index != index {
			logger(s.Logger).Warn("discarding cached chunks", "key", key, "field", field, "error", err)
			return nil, nil
		}
		chunks[index] = chunk
	}
	for i, chunk := range chunks {
		if chunk == nil {
			logger(s.Logger).Warn("discarding cached chunks", "key", key, "missing", i)
			return nil, nil
		}
	}

	return chunks, nil
}

// EnsureEmbeddings embeds every chunk that lacks an embedding and writes it
// back. A chunk is written only after its embedding succeeds.
func (s *ChunkStore) EnsureEmbeddings(ctx context.Context, page *catalogqa.PageContent, chunks []*catalogqa.Chunk) error {
	if err := page.Validate(); err != nil {
		return err
	}

	key := ChunkKey(page)
	var errs []error
	for _, chunk := range chunks {
		if chunk.HasEmbedding() {
			continue
		}

		embedding, err := s.embed(ctx, chunk.Text)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		embedded := *chunk
		embedded.Embedding = embedding
		if err := s.write(ctx, key, &embedded); err != nil {
			errs = append(errs, err)
			continue
		}
		chunk.Embedding = embedding
	}

	return errors.Join(errs...)
}

func (s *ChunkStore) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	embedding, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		if catalogqa.IsTimeout(err) {
			return nil, catalogqa.Errorf(catalogqa.ETIMEOUT, "embedding timed out")
		}
		if catalogqa.ErrorCode(err) == catalogqa.EINTERNAL {
			return nil, catalogqa.Errorf(catalogqa.EEMBED, "embedding failed: %v", err)
		}
		return nil, err
	}
	return embedding, nil
}

func (s *ChunkStore) write(ctx context.Context, key string, chunk *catalogqa.Chunk) error {
	data, err := catalogqa.MarshalChunk(chunk)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, key, ChunkField(chunk.Index), data)
}
