package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/catalogqa"
)

// Ensure Converter implements catalogqa.Converter at compile time.
var _ catalogqa.Converter = (*Converter)(nil)

// Option configures a Converter.
type Option func(*Converter)

// WithDomain resolves relative links and images against domain.
func WithDomain(domain string) Option {
	return func(c *Converter) {
		c.domain = domain
	}
}

// Converter wraps html-to-markdown to turn a catalog content region into
// plain Markdown text.
type Converter struct {
	conv   *converter.Converter
	domain string
}

// NewConverter creates a new Converter.
func NewConverter(opts ...Option) *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	c := &Converter{conv: conv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert transforms HTML content into Markdown. A region that renders to
// nothing but whitespace is reported as EEXTRACT.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "empty HTML input")
	}

	var convOpts []converter.ConvertOptionFunc
	if c.domain != "" {
		convOpts = append(convOpts, converter.WithDomain(c.domain))
	}

	result, err := c.conv.ConvertString(html, convOpts...)
	if err != nil {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "failed to convert HTML: %v", err)
	}

	result = strings.TrimSpace(result)
	if result == "" {
		return "", catalogqa.Errorf(catalogqa.EEXTRACT, "content region has no text")
	}

	return result, nil
}
