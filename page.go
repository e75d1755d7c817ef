package catalogqa

import "context"

// PageContent is the extracted text of one catalog page.
type PageContent struct {
	URL     string `json:"linkRef"`
	Content string `json:"content"`
}

// Validate returns an error if the page contains invalid fields.
func (p *PageContent) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	return nil
}

// ContentStore returns page text, fetching it on first use.
type ContentStore interface {
	// GetContent returns the cached content for url, fetching and caching
	// it if absent.
	// Returns EFETCH, ETIMEOUT, or EEXTRACT when the page cannot be read.
	GetContent(ctx context.Context, url string) (*PageContent, error)
}
