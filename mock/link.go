package mock

import (
	"context"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.ListingParser = (*ListingParser)(nil)

// ListingParser is a mock implementation of catalogqa.ListingParser.
type ListingParser struct {
	ParseListingFn func(html string) ([]catalogqa.CatalogLink, error)
}

func (p *ListingParser) ParseListing(html string) ([]catalogqa.CatalogLink, error) {
	return p.ParseListingFn(html)
}

var _ catalogqa.LinkIndexer = (*LinkIndexer)(nil)

// LinkIndexer is a mock implementation of catalogqa.LinkIndexer.
type LinkIndexer struct {
	BuildIndexFn func(ctx context.Context) (catalogqa.LinkIndex, error)
}

func (i *LinkIndexer) BuildIndex(ctx context.Context) (catalogqa.LinkIndex, error) {
	return i.BuildIndexFn(ctx)
}

var _ catalogqa.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of catalogqa.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
