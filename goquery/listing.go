package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/catalogqa"
)

// Ensure ListingParser implements catalogqa.ListingParser at compile time.
var _ catalogqa.ListingParser = (*ListingParser)(nil)

// ListingParser extracts catalog links from one container of a listing page.
type ListingParser struct {
	baseURL  string
	selector string
}

// NewListingParser creates a ListingParser that reads anchors beneath the
// element matching selector and resolves them against baseURL.
func NewListingParser(baseURL, selector string) *ListingParser {
	return &ListingParser{baseURL: baseURL, selector: selector}
}

// ParseListing returns every anchor beneath the listing container in
// document order. Links are deduplicated by URL, keeping the first.
func (p *ListingParser) ParseListing(html string) ([]catalogqa.CatalogLink, error) {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, catalogqa.Errorf(catalogqa.ESOURCE, "failed to parse listing HTML: %v", err)
	}

	container := doc.Find(p.selector).First()
	if container.Length() == 0 {
		return nil, catalogqa.Errorf(catalogqa.ESOURCE, "listing container %q not found", p.selector)
	}

	seen := make(map[string]bool)
	links := []catalogqa.CatalogLink{}
	container.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true

		links = append(links, catalogqa.CatalogLink{
			URL:  resolved,
			Text: collapseSpace(sel.Text()),
		})
	})

	return links, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed.
// Fragments are stripped from the resolved URL for deduplication purposes.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#")
}

// collapseSpace trims s and replaces runs of whitespace with one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
