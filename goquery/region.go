package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/catalogqa"
)

// Ensure RegionExtractor implements catalogqa.Extractor at compile time.
var _ catalogqa.Extractor = (*RegionExtractor)(nil)

// RegionExtractor returns the HTML of the designated content region of a page.
type RegionExtractor struct {
	selector string
}

// NewRegionExtractor creates a RegionExtractor for the first element
// matching selector.
func NewRegionExtractor(selector string) *RegionExtractor {
	return &RegionExtractor{selector: selector}
}

// Extract returns the inner HTML of the content region with scripts,
// styles, and forms removed.
func (e *RegionExtractor) Extract(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "failed to parse HTML: %v", err)
	}

	region := doc.Find(e.selector).First()
	if region.Length() == 0 {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "content region %q not found", e.selector)
	}
	region.Find("script, style, noscript, form").Remove()

	content, err := region.Html()
	if err != nil {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "failed to render content region: %v", err)
	}
	if strings.TrimSpace(content) == "" {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "content region %q is empty", e.selector)
	}

	return content, nil
}
