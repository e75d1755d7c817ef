package rag

import (
	"context"
	"time"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.LinkIndexer = (*Indexer)(nil)

// Indexer builds the link index of a catalog from its listing page. It
// holds no state between calls; every call reflects the listing as it is.
type Indexer struct {
	Source      *catalogqa.Source
	Fetcher     catalogqa.Fetcher
	Parser      catalogqa.ListingParser
	CallTimeout time.Duration
}

// BuildIndex fetches and parses the listing and adds the department link.
func (idx *Indexer) BuildIndex(ctx context.Context) (catalogqa.LinkIndex, error) {
	ctx, cancel := withTimeout(ctx, idx.CallTimeout)
	defer cancel()

	html, err := idx.Fetcher.Fetch(ctx, idx.Source.RootURL)
	if err != nil {
		return nil, catalogqa.Errorf(catalogqa.ESOURCE, "catalog listing unavailable: %s", catalogqa.ErrorMessage(err))
	}

	links, err := idx.Parser.ParseListing(html)
	if err != nil {
		return nil, catalogqa.Errorf(catalogqa.ESOURCE, "catalog listing unreadable: %s", catalogqa.ErrorMessage(err))
	}

	index := make(catalogqa.LinkIndex, len(links)+1)
	for _, link := range links {
		index[link.URL] = link
	}
	index[idx.Source.Department.URL] = idx.Source.Department

	return index, nil
}

// withTimeout derives a context with its own deadline. A zero timeout
// leaves the parent deadline in place.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
