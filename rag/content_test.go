package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/goquery"
	"github.com/fwojciec/catalogqa/htmltomarkdown"
	"github.com/fwojciec/catalogqa/mock"
	"github.com/fwojciec/catalogqa/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageURL = "https://catalog.example.edu/preview_program.php?poid=1"

const testPageHTML = `<html><body>
<div class="nav">Navigation</div>
<div class="block_content"><h1>Computer Science (MS)</h1><p>Thirty credits are required.</p></div>
</body></html>`

func newContentStore(cache catalogqa.Cache, fetcher catalogqa.Fetcher) *rag.ContentStore {
	return &rag.ContentStore{
		Cache:     cache,
		Fetcher:   fetcher,
		Extractor: goquery.NewRegionExtractor(".block_content"),
		Converter: htmltomarkdown.NewConverter(),
	}
}

func TestContentStore_GetContent(t *testing.T) {
	t.Parallel()

	t.Run("fetches, extracts, and caches on first request", func(t *testing.T) {
		t.Parallel()

		cache := mock.NewMemoryCache()
		fetches := 0
		store := newContentStore(cache, &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				fetches++
				assert.Equal(t, testPageURL, url)
				return testPageHTML, nil
			},
		})

		page, err := store.GetContent(context.Background(), testPageURL)

		require.NoError(t, err)
		assert.Equal(t, testPageURL, page.URL)
		assert.Contains(t, page.Content, "# Computer Science (MS)")
		assert.Contains(t, page.Content, "Thirty credits are required.")
		assert.NotContains(t, page.Content, "Navigation")
		assert.Equal(t, 1, fetches)
		assert.Equal(t, 1, cache.Writes())

		data, err := cache.Get(context.Background(), rag.PageKey(testPageURL), rag.ContentField)
		require.NoError(t, err)
		cached, err := catalogqa.UnmarshalPageContent(data)
		require.NoError(t, err)
		assert.Equal(t, page, cached)
	})

	t.Run("serves cached content without fetching", func(t *testing.T) {
		t.Parallel()

		cache := mock.NewMemoryCache()
		seed(t, cache, &catalogqa.PageContent{URL: testPageURL, Content: "Cached text."})
		store := newContentStore(cache, &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				t.Fatal("fetch should not be called")
				return "", nil
			},
		})

		page, err := store.GetContent(context.Background(), testPageURL)

		require.NoError(t, err)
		assert.Equal(t, "Cached text.", page.Content)
		assert.Equal(t, 1, cache.Writes())
	})

	t.Run("treats undecodable record as a miss and overwrites it", func(t *testing.T) {
		t.Parallel()

		cache := mock.NewMemoryCache()
		require.NoError(t, cache.Set(context.Background(), rag.PageKey(testPageURL), rag.ContentField, []byte(`{"linkRef":1}`)))
		store := newContentStore(cache, &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return testPageHTML, nil
			},
		})

		page, err := store.GetContent(context.Background(), testPageURL)

		require.NoError(t, err)
		assert.Contains(t, page.Content, "Thirty credits")

		data, err := cache.Get(context.Background(), rag.PageKey(testPageURL), rag.ContentField)
		require.NoError(t, err)
		_, err = catalogqa.UnmarshalPageContent(data)
		require.NoError(t, err)
	})

	t.Run("returns EFETCH without caching when fetch fails", func(t *testing.T) {
		t.Parallel()

		cache := mock.NewMemoryCache()
		store := newContentStore(cache, &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "", catalogqa.Errorf(catalogqa.EFETCH, "HTTP 500")
			},
		})

		_, err := store.GetContent(context.Background(), testPageURL)

		require.Error(t, err)
		assert.Equal(t, catalogqa.EFETCH, catalogqa.ErrorCode(err))
		assert.Equal(t, 0, cache.Writes())
	})

	t.Run("wraps uncoded fetch errors as EFETCH", func(t *testing.T) {
		t.Parallel()

		store := newContentStore(mock.NewMemoryCache(), &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "", errors.New("connection reset")
			},
		})

		_, err := store.GetContent(context.Background(), testPageURL)

		require.Error(t, err)
		assert.Equal(t, catalogqa.EFETCH, catalogqa.ErrorCode(err))
	})

	t.Run("returns ETIMEOUT when fetch times out", func(t *testing.T) {
		t.Parallel()

		store := newContentStore(mock.NewMemoryCache(), &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "", context.DeadlineExceeded
			},
		})

		_, err := store.GetContent(context.Background(), testPageURL)

		require.Error(t, err)
		assert.Equal(t, catalogqa.ETIMEOUT, catalogqa.ErrorCode(err))
	})

	t.Run("returns EEXTRACT when content region is missing", func(t *testing.T) {
		t.Parallel()

		cache := mock.NewMemoryCache()
		store := newContentStore(cache, &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return `<html><body><p>Page moved</p></body></html>`, nil
			},
		})

		_, err := store.GetContent(context.Background(), testPageURL)

		require.Error(t, err)
		assert.Equal(t, catalogqa.EEXTRACT, catalogqa.ErrorCode(err))
		assert.Equal(t, 0, cache.Writes())
	})

	t.Run("waits on the rate limiter with the page host", func(t *testing.T) {
		t.Parallel()

		var domains []string
		store := newContentStore(mock.NewMemoryCache(), &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return testPageHTML, nil
			},
		})
		store.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				domains = append(domains, domain)
				return nil
			},
		}

		_, err := store.GetContent(context.Background(), testPageURL)

		require.NoError(t, err)
		assert.Equal(t, []string{"catalog.example.edu"}, domains)
	})

	t.Run("returns EINVALID for empty URL", func(t *testing.T) {
		t.Parallel()

		store := newContentStore(mock.NewMemoryCache(), &mock.Fetcher{})

		_, err := store.GetContent(context.Background(), "")

		require.Error(t, err)
		assert.Equal(t, catalogqa.EINVALID, catalogqa.ErrorCode(err))
	})
}

// seed writes page content straight into the cache.
func seed(t *testing.T, cache catalogqa.Cache, page *catalogqa.PageContent) {
	t.Helper()

	data, err := catalogqa.MarshalPageContent(page)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), rag.PageKey(page.URL), rag.ContentField, data))
}
