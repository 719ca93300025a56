package insight

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/resilience"
	"github.com/sells-group/ppm-finder/pkg/anthropic"
)

// AnthropicGenerator adapts an anthropic.Client to Generator.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicGenerator creates a generator using cfg's model and limits.
func NewAnthropicGenerator(client anthropic.Client, cfg config.AnthropicConfig) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := g.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	temp := g.temperature
	if req.Temperature > 0 {
		temp = req.Temperature
	}

	msg := anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: req.UserPrompt}},
		Temperature: &temp,
	}
	if req.SystemPrompt != "" {
		msg.System = []anthropic.SystemBlock{{Text: req.SystemPrompt}}
	}

	resp, err := g.client.CreateMessage(ctx, msg)
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return "", resilience.NewTransientError(err, code)
		}
		return "", eris.Wrap(err, "insight: generate")
	}
	resp.Usage.LogCost(g.model, req.Kind)
	return resp.Text(), nil
}

// NewGenerator returns the guarded Anthropic generator, or nil when no API
// key is configured.
func NewGenerator(cfg *config.Config) Generator {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return Guarded(NewAnthropicGenerator(client, cfg.Anthropic), GuardConfigFrom(cfg.Insight))
}
