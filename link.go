package catalogqa

import (
	"context"
	"sort"
)

// CatalogLink is a navigable catalog page and the label it is listed under.
type CatalogLink struct {
	URL  string `json:"href"`
	Text string `json:"text"`
}

// LinkIndex maps absolute page URLs to their catalog links.
type LinkIndex map[string]CatalogLink

// Links returns the index entries sorted by URL.
func (idx LinkIndex) Links() []CatalogLink {
	links := make([]CatalogLink, 0, len(idx))
	for _, link := range idx {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].URL < links[j].URL
	})
	return links
}

// Source describes where a catalog lives and how its pages are laid out.
type Source struct {
	// Name is shown to the language model, e.g. "UD CIS Graduate Catalog".
	Name string `json:"name"`

	// RootURL is the listing page the link index is built from.
	RootURL string `json:"rootUrl"`

	// BaseURL is used to resolve relative hrefs found in the listing.
	BaseURL string `json:"baseUrl"`

	// ListingSelector locates the container holding the catalog anchors.
	ListingSelector string `json:"listingSelector"`

	// ContentSelector locates the content region of a catalog page.
	ContentSelector string `json:"contentSelector"`

	// Department is the synthetic overview link always present in the index.
	Department CatalogLink `json:"department"`

	// Refusal is returned when no catalog page plausibly answers a question.
	Refusal string `json:"refusal"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.RootURL == "" {
		return Errorf(EINVALID, "source root URL required")
	}
	if s.BaseURL == "" {
		return Errorf(EINVALID, "source base URL required")
	}
	if s.ListingSelector == "" {
		return Errorf(EINVALID, "source listing selector required")
	}
	if s.ContentSelector == "" {
		return Errorf(EINVALID, "source content selector required")
	}
	if s.Department.URL == "" {
		return Errorf(EINVALID, "source department URL required")
	}
	return nil
}

// ListingParser extracts catalog links from the HTML of a listing page.
type ListingParser interface {
	// ParseListing returns every anchor beneath the listing container,
	// resolved to absolute URLs.
	// Returns ESOURCE if the listing container is missing.
	ParseListing(html string) ([]CatalogLink, error)
}

// LinkIndexer builds the link index of a catalog.
type LinkIndexer interface {
	// BuildIndex derives the index from the current state of the listing.
	// Returns ESOURCE if the listing cannot be fetched or parsed.
	BuildIndex(ctx context.Context) (LinkIndex, error)
}
