package rag

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/catalogqa"
)

// ContentField is the cache field holding a page content record.
const ContentField = "content"

// ChunkCountField is the cache field holding the size of a page's chunk set.
// It is written after every chunk of the set.
const ChunkCountField = "count"

// PageKey returns the cache key of a page content record.
func PageKey(url string) string {
	return "page:" + url
}

// ChunkKey returns the cache key of a page's chunk set. The key includes a
// hash of the page text so chunks always match the content they were split
// from.
func ChunkKey(page *catalogqa.PageContent) string {
	return fmt.Sprintf("chunks:%s:%s", page.URL, ContentHash(page.Content))
}

// ChunkField returns the cache field of the chunk at index.
func ChunkField(index int) string {
	return strconv.Itoa(index)
}

// ContentHash computes a hash of the content using xxhash.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
