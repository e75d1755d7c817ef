package catalogqa

// Extractor extracts the designated content region from a catalog page.
type Extractor interface {
	// Extract returns the inner HTML of the content region.
	// Returns EEXTRACT if the region is absent from the document.
	Extract(html string) (string, error)
}
