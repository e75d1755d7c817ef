package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/catalogqa"
	"google.golang.org/genai"
)

// Ensure Selector implements catalogqa.Selector at compile time.
var _ catalogqa.Selector = (*Selector)(nil)

// Selector implements catalogqa.Selector by asking Gemini which catalog
// links answer a question.
type Selector struct {
	client     *genai.Client
	model      string
	maxSources int
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSelectorModel sets the model used for selection.
func WithSelectorModel(model string) SelectorOption {
	return func(s *Selector) {
		s.model = model
	}
}

// WithMaxSources sets how many links the model is asked to pick.
func WithMaxSources(n int) SelectorOption {
	return func(s *Selector) {
		s.maxSources = n
	}
}

// NewSelector creates a new Selector.
func NewSelector(client *genai.Client, opts ...SelectorOption) *Selector {
	s := &Selector{
		client:     client,
		model:      DefaultModel,
		maxSources: catalogqa.DefaultMaxSources,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the model's raw selection response.
func (s *Selector) Select(ctx context.Context, question string, links []catalogqa.CatalogLink) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "question required")
	}
	if len(links) == 0 {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "links required")
	}

	prompt := BuildSelectionPrompt(links, question)
	resp, err := generate(ctx, s.client, s.model, prompt, BuildSelectionConfig(s.maxSources))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}

// BuildSelectionConfig returns the GenerateContentConfig for link selection.
func BuildSelectionConfig(maxSources int) *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: fmt.Sprintf("You route questions about a university catalog to catalog pages. "+
					"Reply with at most %d URLs from the provided links, most relevant first, separated by commas. "+
					"Reply with exactly %s if no link is relevant to the question. "+
					"Do not reply with anything else.", maxSources, catalogqa.NotApplicable),
			}},
		},
		Temperature: &temp,
	}
}

// BuildSelectionPrompt builds the user prompt listing the candidate links.
func BuildSelectionPrompt(links []catalogqa.CatalogLink, question string) string {
	var sb strings.Builder
	sb.WriteString("<links>\n")
	for _, link := range links {
		sb.WriteString("<link>\n")
		fmt.Fprintf(&sb, "<url>%s</url>\n", link.URL)
		fmt.Fprintf(&sb, "<text>%s</text>\n", link.Text)
		sb.WriteString("</link>\n")
	}
	sb.WriteString("</links>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
