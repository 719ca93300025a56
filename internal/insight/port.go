package insight

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Request is a single text-generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int64
	Temperature  float64
	// Kind labels the call for logs and cost attribution ("highlight",
	// "honorable", "cell").
	Kind string
}

// Generator produces short marketing text. A nil Generator is the normal
// unconfigured mode and means "always use the fallback".
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	// ErrEmptyResponse is returned when the backend answered with no text.
	ErrEmptyResponse = eris.New("insight: empty response")
	// ErrOverBudget is returned when the text exceeds the character budget.
	ErrOverBudget = eris.New("insight: response over budget")
)

var quoteStripper = strings.NewReplacer(
	`"`, "",
	"'", "",
	"“", "",
	"”", "",
	"‘", "",
	"’", "",
)

// Clean strips quote characters and surrounding whitespace, then checks
// the result against budget (in runes). budget <= 0 disables the check.
func Clean(text string, budget int) (string, error) {
	text = strings.TrimSpace(quoteStripper.Replace(text))
	if text == "" {
		return "", ErrEmptyResponse
	}
	if budget > 0 && utf8.RuneCountInString(text) > budget {
		return "", eris.Wrapf(ErrOverBudget, "insight: %d > %d runes", utf8.RuneCountInString(text), budget)
	}
	return text, nil
}
