package mock

import (
	"context"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.ContentStore = (*ContentStore)(nil)

// ContentStore is a mock implementation of catalogqa.ContentStore.
type ContentStore struct {
	GetContentFn func(ctx context.Context, url string) (*catalogqa.PageContent, error)
}

func (s *ContentStore) GetContent(ctx context.Context, url string) (*catalogqa.PageContent, error) {
	return s.GetContentFn(ctx, url)
}
