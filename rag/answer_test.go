package rag_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/goquery"
	"github.com/fwojciec/catalogqa/mock"
	"github.com/fwojciec/catalogqa/rag"
	"github.com/fwojciec/catalogqa/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	urlCS  = "https://catalog.example.edu/cs"
	urlAI  = "https://catalog.example.edu/ai"
	urlSec = "https://catalog.example.edu/sec"
)

var answerIndex = catalogqa.LinkIndex{
	urlCS:  {URL: urlCS, Text: "Computer Science (MS)"},
	urlAI:  {URL: urlAI, Text: "Artificial Intelligence (MS)"},
	urlSec: {URL: urlSec, Text: "Cybersecurity (MS)"},
}

func staticIndexer(index catalogqa.LinkIndex) *mock.LinkIndexer {
	return &mock.LinkIndexer{
		BuildIndexFn: func(context.Context) (catalogqa.LinkIndex, error) {
			return index, nil
		},
	}
}

func staticSelector(resp string) *mock.Selector {
	return &mock.Selector{
		SelectFn: func(context.Context, string, []catalogqa.CatalogLink) (string, error) {
			return resp, nil
		},
	}
}

// pageChunks returns a chunk store serving one embedded chunk per page.
func pageChunks() *mock.ChunkStore {
	return &mock.ChunkStore{
		GetChunksFn: func(_ context.Context, page *catalogqa.PageContent) ([]*catalogqa.Chunk, error) {
			return []*catalogqa.Chunk{{Index: 0, Text: page.Content, Embedding: []float32{1, 0}}}, nil
		},
		EnsureEmbeddingsFn: func(context.Context, *catalogqa.PageContent, []*catalogqa.Chunk) error {
			return nil
		},
	}
}

func echoContents() *mock.ContentStore {
	return &mock.ContentStore{
		GetContentFn: func(_ context.Context, url string) (*catalogqa.PageContent, error) {
			return &catalogqa.PageContent{URL: url, Content: "content of " + url}, nil
		},
	}
}

func unitEmbedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(context.Context, string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
}

func TestAnswerer_Answer(t *testing.T) {
	t.Parallel()

	t.Run("answers from the selected pages in selection order", func(t *testing.T) {
		t.Parallel()

		var gotContexts []catalogqa.SourceContext
		var gotURLs []string
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlAI + ", " + urlCS),
			Embedder: unitEmbedder(),
			Contents: echoContents(),
			Chunks:   pageChunks(),
			Generator: &mock.Generator{
				GenerateFn: func(_ context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (string, error) {
					assert.Equal(t, "Which programs exist?", question)
					gotContexts = contexts
					gotURLs = urls
					return "Two programs.", nil
				},
			},
		}

		answer, err := a.Answer(context.Background(), "  Which programs exist? ")

		require.NoError(t, err)
		assert.Equal(t, &catalogqa.Answer{Text: "Two programs.", Sources: []string{urlAI, urlCS}}, answer)
		assert.Equal(t, []string{urlAI, urlCS}, gotURLs)
		assert.Equal(t, []catalogqa.SourceContext{
			{URL: urlAI, Title: "Artificial Intelligence (MS)", Context: "content of " + urlAI},
			{URL: urlCS, Title: "Computer Science (MS)", Context: "content of " + urlCS},
		}, gotContexts)
	})

	t.Run("caps the number of sources", func(t *testing.T) {
		t.Parallel()

		var fetched sync.Map
		contents := &mock.ContentStore{
			GetContentFn: func(_ context.Context, url string) (*catalogqa.PageContent, error) {
				fetched.Store(url, true)
				return &catalogqa.PageContent{URL: url, Content: "text"}, nil
			},
		}
		a := &rag.Answerer{
			Indexer:   staticIndexer(answerIndex),
			Selector:  staticSelector(urlCS + "," + urlAI + "," + urlSec),
			Embedder:  unitEmbedder(),
			Contents:  contents,
			Chunks:    pageChunks(),
			Generator: &mock.Generator{GenerateFn: func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) { return "ok", nil }},
		}

		answer, err := a.Answer(context.Background(), "question")

		require.NoError(t, err)
		assert.Equal(t, []string{urlCS, urlAI}, answer.Sources)
		_, secFetched := fetched.Load(urlSec)
		assert.False(t, secFetched)
	})

	t.Run("sentinel returns refusal without content or embedding calls", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(" n/a "),
			Embedder: &mock.Embedder{EmbedFn: func(context.Context, string) ([]float32, error) {
				t.Fatal("embedder should not be called")
				return nil, nil
			}},
			Contents: &mock.ContentStore{GetContentFn: func(context.Context, string) (*catalogqa.PageContent, error) {
				t.Fatal("content store should not be called")
				return nil, nil
			}},
			Generator: &mock.Generator{GenerateFn: func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) {
				t.Fatal("generator should not be called")
				return "", nil
			}},
			Refusal: "Please keep your questions focused on the graduate program.",
		}

		answer, err := a.Answer(context.Background(), "What is the weather?")

		require.NoError(t, err)
		assert.Equal(t, &catalogqa.Answer{Text: "Please keep your questions focused on the graduate program.", Refused: true}, answer)
	})

	t.Run("refusal falls back to default text", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(catalogqa.NotApplicable),
		}

		answer, err := a.Answer(context.Background(), "What is the weather?")

		require.NoError(t, err)
		assert.Equal(t, catalogqa.DefaultRefusal, answer.Text)
		assert.True(t, answer.Refused)
	})

	t.Run("all pages failing yields insufficient answer without generation", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS + ", " + urlAI),
			Embedder: unitEmbedder(),
			Contents: &mock.ContentStore{GetContentFn: func(context.Context, string) (*catalogqa.PageContent, error) {
				calls.Add(1)
				return nil, catalogqa.Errorf(catalogqa.EFETCH, "HTTP 503")
			}},
			Generator: &mock.Generator{GenerateFn: func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) {
				t.Fatal("generator should not be called")
				return "", nil
			}},
		}

		answer, err := a.Answer(context.Background(), "How many credits?")

		require.NoError(t, err)
		assert.Equal(t, &catalogqa.Answer{Text: catalogqa.InsufficientMessage, Insufficient: true}, answer)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("returns context error when cancelled during retrieval", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS + ", " + urlAI),
			Embedder: unitEmbedder(),
			Contents: &mock.ContentStore{GetContentFn: func(ctx context.Context, _ string) (*catalogqa.PageContent, error) {
				cancel()
				return nil, ctx.Err()
			}},
			Chunks: pageChunks(),
			Generator: &mock.Generator{GenerateFn: func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) {
				t.Fatal("generator should not be called")
				return "", nil
			}},
		}

		answer, err := a.Answer(ctx, "How many credits?")

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, answer)
	})

	t.Run("one failing page is skipped", func(t *testing.T) {
		t.Parallel()

		var gotURLs []string
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS + ", " + urlAI),
			Embedder: unitEmbedder(),
			Contents: &mock.ContentStore{GetContentFn: func(_ context.Context, url string) (*catalogqa.PageContent, error) {
				if url == urlCS {
					return nil, catalogqa.Errorf(catalogqa.EEXTRACT, "region missing")
				}
				return &catalogqa.PageContent{URL: url, Content: "AI text"}, nil
			}},
			Chunks: pageChunks(),
			Generator: &mock.Generator{GenerateFn: func(_ context.Context, _ string, contexts []catalogqa.SourceContext, urls []string) (string, error) {
				require.Len(t, contexts, 1)
				assert.Equal(t, urlAI, contexts[0].URL)
				gotURLs = urls
				return "answer", nil
			}},
		}

		answer, err := a.Answer(context.Background(), "question")

		require.NoError(t, err)
		assert.Equal(t, []string{urlAI}, answer.Sources)
		assert.Equal(t, []string{urlCS, urlAI}, gotURLs)
	})

	t.Run("retries a timed out page once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS),
			Embedder: unitEmbedder(),
			Contents: &mock.ContentStore{GetContentFn: func(_ context.Context, url string) (*catalogqa.PageContent, error) {
				if calls.Add(1) == 1 {
					return nil, catalogqa.Errorf(catalogqa.ETIMEOUT, "fetch timed out")
				}
				return &catalogqa.PageContent{URL: url, Content: "text"}, nil
			}},
			Chunks:    pageChunks(),
			Generator: &mock.Generator{GenerateFn: func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) { return "ok", nil }},
		}

		answer, err := a.Answer(context.Background(), "question")

		require.NoError(t, err)
		assert.Equal(t, "ok", answer.Text)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("does not retry a timed out page twice", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS),
			Embedder: unitEmbedder(),
			Contents: &mock.ContentStore{GetContentFn: func(context.Context, string) (*catalogqa.PageContent, error) {
				calls.Add(1)
				return nil, catalogqa.Errorf(catalogqa.ETIMEOUT, "fetch timed out")
			}},
		}

		answer, err := a.Answer(context.Background(), "question")

		require.NoError(t, err)
		assert.True(t, answer.Insufficient)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("unresolvable selection yields insufficient answer", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector("https://elsewhere.example.com/page"),
			Embedder: &mock.Embedder{EmbedFn: func(context.Context, string) ([]float32, error) {
				t.Fatal("embedder should not be called")
				return nil, nil
			}},
		}

		answer, err := a.Answer(context.Background(), "question")

		require.NoError(t, err)
		assert.True(t, answer.Insufficient)
	})

	t.Run("returns EINVALID for empty question", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{}

		_, err := a.Answer(context.Background(), "   ")

		require.Error(t, err)
		assert.Equal(t, catalogqa.EINVALID, catalogqa.ErrorCode(err))
	})

	t.Run("returns ESOURCE when index cannot be built", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer: &mock.LinkIndexer{BuildIndexFn: func(context.Context) (catalogqa.LinkIndex, error) {
				return nil, catalogqa.Errorf(catalogqa.ESOURCE, "catalog listing unavailable")
			}},
		}

		_, err := a.Answer(context.Background(), "question")

		require.Error(t, err)
		assert.Equal(t, catalogqa.ESOURCE, catalogqa.ErrorCode(err))
	})

	t.Run("returns EGENERATE when selection fails", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer: staticIndexer(answerIndex),
			Selector: &mock.Selector{SelectFn: func(context.Context, string, []catalogqa.CatalogLink) (string, error) {
				return "", errors.New("quota exceeded")
			}},
		}

		_, err := a.Answer(context.Background(), "question")

		require.Error(t, err)
		assert.Equal(t, catalogqa.EGENERATE, catalogqa.ErrorCode(err))
	})

	t.Run("returns ETIMEOUT when selection times out", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer: staticIndexer(answerIndex),
			Selector: &mock.Selector{SelectFn: func(context.Context, string, []catalogqa.CatalogLink) (string, error) {
				return "", context.DeadlineExceeded
			}},
		}

		_, err := a.Answer(context.Background(), "question")

		require.Error(t, err)
		assert.Equal(t, catalogqa.ETIMEOUT, catalogqa.ErrorCode(err))
	})

	t.Run("returns EEMBED when question embedding fails", func(t *testing.T) {
		t.Parallel()

		a := &rag.Answerer{
			Indexer:  staticIndexer(answerIndex),
			Selector: staticSelector(urlCS),
			Embedder: &mock.Embedder{EmbedFn: func(context.Context, string) ([]float32, error) {
				return nil, errors.New("backend down")
			}},
		}

		_, err := a.Answer(context.Background(), "question")

		require.Error(t, err)
		assert.Equal(t, catalogqa.EEMBED, catalogqa.ErrorCode(err))
	})

	t.Run("returns EGENERATE when generation fails or is empty", func(t *testing.T) {
		t.Parallel()

		for _, gen := range []func(context.Context, string, []catalogqa.SourceContext, []string) (string, error){
			func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) {
				return "", errors.New("model overloaded")
			},
			func(context.Context, string, []catalogqa.SourceContext, []string) (string, error) {
				return "  ", nil
			},
		} {
			a := &rag.Answerer{
				Indexer:   staticIndexer(answerIndex),
				Selector:  staticSelector(urlCS),
				Embedder:  unitEmbedder(),
				Contents:  echoContents(),
				Chunks:    pageChunks(),
				Generator: &mock.Generator{GenerateFn: gen},
			}

			_, err := a.Answer(context.Background(), "question")

			require.Error(t, err)
			assert.Equal(t, catalogqa.EGENERATE, catalogqa.ErrorCode(err))
		}
	})
}

func TestAnswerer_EndToEnd(t *testing.T) {
	t.Parallel()

	cache := mock.NewMemoryCache()
	department := testSource.Department

	// Content for the department page is already cached.
	seed(t, cache, &catalogqa.PageContent{URL: department.URL, Content: "A. B. C. D."})

	indexer := &rag.Indexer{
		Source: testSource,
		Fetcher: &mock.Fetcher{FetchFn: func(_ context.Context, url string) (string, error) {
			require.Equal(t, testSource.RootURL, url)
			return testListing, nil
		}},
		Parser: goquery.NewListingParser(testSource.BaseURL, testSource.ListingSelector),
	}

	index, err := indexer.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, index, 4)

	embedder := fixedEmbedder(map[string][]float32{
		"A. B.":                 {1, 0},
		"C. D.":                 {0, 1},
		"What is in section C?": {0.1, 1},
	})

	var gotContexts []catalogqa.SourceContext
	a := &rag.Answerer{
		Indexer: indexer,
		Selector: &mock.Selector{SelectFn: func(_ context.Context, _ string, links []catalogqa.CatalogLink) (string, error) {
			assert.Len(t, links, 4)
			return department.URL, nil
		}},
		Embedder: embedder,
		Contents: &rag.ContentStore{
			Cache: cache,
			Fetcher: &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
				t.Fatal("cached page should not be fetched")
				return "", nil
			}},
		},
		Chunks: &rag.ChunkStore{
			Cache:    cache,
			Splitter: uniseg.NewSplitter(uniseg.WithMaxLength(5)),
			Embedder: embedder,
		},
		Generator: &mock.Generator{GenerateFn: func(_ context.Context, _ string, contexts []catalogqa.SourceContext, _ []string) (string, error) {
			gotContexts = contexts
			return "Section C covers D.", nil
		}},
	}

	answer, err := a.Answer(context.Background(), "What is in section C?")

	require.NoError(t, err)
	assert.Equal(t, "Section C covers D.", answer.Text)
	assert.Equal(t, []string{department.URL}, answer.Sources)
	require.Len(t, gotContexts, 1)
	assert.Equal(t, "A. B.\n\nC. D.", gotContexts[0].Context)
	assert.Equal(t, department.Text, gotContexts[0].Title)
}
