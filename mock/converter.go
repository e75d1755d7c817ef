package mock

import "github.com/fwojciec/catalogqa"

var _ catalogqa.Converter = (*Converter)(nil)

// Converter is a mock implementation of catalogqa.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
