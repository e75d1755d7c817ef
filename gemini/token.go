package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/catalogqa"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ catalogqa.TokenCounter = (*TokenCounter)(nil)

// DefaultTokenizerModel is used when no model is given.
const DefaultTokenizerModel = "gemini-2.5-flash"

// TokenCounter estimates how many prompt tokens a catalog page costs when it
// is sent to the model as context. Counting runs locally.
type TokenCounter struct {
	model string
	tok   *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a TokenCounter for model.
// Returns EINVALID if the local tokenizer does not support the model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultTokenizerModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "no local tokenizer for model %q: %v", model, err)
	}
	return &TokenCounter{model: model, tok: tok}, nil
}

// Model returns the model tokens are counted for.
func (tc *TokenCounter) Model() string {
	return tc.model
}

// CountTokens counts the tokens of text sent as a user turn.
// Whitespace-only text counts as zero.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, catalogqa.Errorf(catalogqa.EINTERNAL, "count tokens for %s: %v", tc.model, err)
	}
	return int(result.TotalTokens), nil
}
