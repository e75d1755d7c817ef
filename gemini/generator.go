package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/catalogqa"
	"google.golang.org/genai"
)

// Ensure Generator implements catalogqa.Generator at compile time.
var _ catalogqa.Generator = (*Generator)(nil)

// Generator implements catalogqa.Generator using Google Gemini.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a new Generator. An empty model selects DefaultModel.
func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Generate answers question from the retrieved contexts.
func (g *Generator) Generate(ctx context.Context, question string, contexts []catalogqa.SourceContext, urls []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "question required")
	}
	if len(contexts) == 0 {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "context required")
	}

	prompt := BuildAnswerPrompt(contexts, urls, question)
	answer, err := generate(ctx, g.client, g.model, prompt, BuildConfig())
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", catalogqa.Errorf(catalogqa.EGENERATE, "gemini returned empty answer")
	}

	return answer, nil
}

// BuildConfig returns the GenerateContentConfig for answer generation.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about a university graduate catalog. Answer based only on the catalog excerpts provided. If the answer is not in the excerpts, say so. Refer readers to the source pages for details.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildAnswerPrompt builds the user prompt containing catalog excerpts,
// the selected source URLs, and the question.
func BuildAnswerPrompt(contexts []catalogqa.SourceContext, urls []string, question string) string {
	var sb strings.Builder
	sb.WriteString("<excerpts>\n")
	for i, c := range contexts {
		title := c.Title
		if title == "" {
			title = c.URL
		}
		sb.WriteString("<excerpt>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		fmt.Fprintf(&sb, "<source>%s</source>\n", c.URL)
		fmt.Fprintf(&sb, "<content>%s</content>\n", c.Context)
		sb.WriteString("</excerpt>\n")
	}
	sb.WriteString("</excerpts>\n\n")
	if len(urls) > 0 {
		sb.WriteString("<sources>\n")
		for _, u := range urls {
			fmt.Fprintf(&sb, "<source>%s</source>\n", u)
		}
		sb.WriteString("</sources>\n\n")
	}
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
