// Package gemini implements catalog page selection, answer generation,
// embeddings, and token counting on top of Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/catalogqa"
	"google.golang.org/genai"
)

// Default model names.
const (
	DefaultModel               = "gemini-2.5-flash"
	DefaultEmbeddingModel      = "gemini-embedding-001"
	DefaultEmbeddingDimensions = 768
)

// generate sends one single-turn prompt and returns the response text.
func generate(ctx context.Context, client *genai.Client, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	result, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return "", callError(catalogqa.EGENERATE, "generate content", err)
	}
	if result == nil {
		return "", catalogqa.Errorf(catalogqa.EGENERATE, "gemini returned nil result")
	}

	return result.Text(), nil
}

// callError converts a client error into a coded error. Expired deadlines
// become ETIMEOUT and everything else takes code.
func callError(code, op string, err error) error {
	if catalogqa.IsTimeout(err) {
		return catalogqa.Errorf(catalogqa.ETIMEOUT, "%s timed out", op)
	}
	return catalogqa.Errorf(code, "%s: %v", op, err)
}
