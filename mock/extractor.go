package mock

import "github.com/fwojciec/catalogqa"

var _ catalogqa.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of catalogqa.Extractor.
type Extractor struct {
	ExtractFn func(html string) (string, error)
}

func (e *Extractor) Extract(html string) (string, error) {
	return e.ExtractFn(html)
}
