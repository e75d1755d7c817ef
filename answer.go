package catalogqa

import (
	"context"
	"strings"
)

// NotApplicable is the selection response meaning no catalog page fits.
const NotApplicable = "N/A"

// Fixed answer texts.
const (
	DefaultRefusal      = "Please keep your questions focused on the catalog."
	InsufficientMessage = "I don't have enough information from the catalog to answer that question."
)

// DefaultMaxSources is the number of pages a question is answered from.
const DefaultMaxSources = 2

// Answer is the outcome of answering a question.
type Answer struct {
	Text string `json:"text"`

	// Sources lists the URLs whose content grounded the answer.
	Sources []string `json:"sources,omitempty"`

	// Refused is set when no catalog page applies to the question.
	Refused bool `json:"refused,omitempty"`

	// Insufficient is set when every selected page failed to yield context.
	Insufficient bool `json:"insufficient,omitempty"`
}

// Answerer answers natural language questions about a catalog.
type Answerer interface {
	// Answer answers question from catalog content.
	// Refusals and insufficient-information outcomes are answers, not errors.
	Answer(ctx context.Context, question string) (*Answer, error)
}

// SourceContext is the grounding excerpt retrieved from one catalog page.
type SourceContext struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Context string `json:"context"`
}

// Selector picks the catalog pages most relevant to a question.
type Selector interface {
	// Select returns the raw selection: either NotApplicable or a
	// comma-separated list of URLs taken from links.
	Select(ctx context.Context, question string, links []CatalogLink) (string, error)
}

// Generator writes the final answer from retrieved context.
type Generator interface {
	// Generate answers question using only the given contexts.
	// urls lists every selected source in selection order.
	Generate(ctx context.Context, question string, contexts []SourceContext, urls []string) (string, error)
}

// IsNotApplicable reports whether a selection response is the sentinel.
func IsNotApplicable(resp string) bool {
	s := strings.ToLower(trimSelection(resp))
	s = strings.TrimRight(s, ".")
	return s == "n/a" || s == "na" || s == "not applicable"
}

// ParseSelection resolves a selection response against the index.
// Tokens may be separated by commas, semicolons, or newlines and may be
// quoted. Each token is matched first as a URL and then as a link's display
// text. Unknown tokens are dropped, duplicates are removed, and at most max
// URLs are returned in response order. A max of zero or less means no limit.
func ParseSelection(resp string, index LinkIndex, max int) []string {
	if IsNotApplicable(resp) {
		return nil
	}

	byText := make(map[string]string, len(index))
	for _, link := range index {
		byText[strings.ToLower(strings.TrimSpace(link.Text))] = link.URL
	}

	fields := strings.FieldsFunc(resp, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	seen := make(map[string]bool)
	var urls []string
	for _, field := range fields {
		token := trimSelection(field)
		if token == "" {
			continue
		}

		url := ""
		if _, ok := index[token]; ok {
			url = token
		} else if u, ok := byText[strings.ToLower(token)]; ok {
			url = u
		}
		if url == "" || seen[url] {
			continue
		}

		seen[url] = true
		urls = append(urls, url)
		if max > 0 && len(urls) == max {
			break
		}
	}
	return urls
}

// trimSelection strips whitespace, quotes, angle brackets, and list
// bullets around a selection token.
func trimSelection(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*• ")
	return strings.Trim(s, " \t\"'`<>")
}
