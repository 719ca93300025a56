package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/resilience"
	"github.com/sells-group/ppm-finder/pkg/anthropic"
)

// mockClient implements anthropic.Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

var testAnthropicConfig = config.AnthropicConfig{
	Key:         "sk-test",
	Model:       "claude-haiku-4-5-20251001",
	MaxTokens:   120,
	Temperature: 0.7,
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return r.Model == "claude-haiku-4-5-20251001" &&
			r.MaxTokens == 60 &&
			*r.Temperature == 0.7 &&
			len(r.System) == 1 && r.System[0].Text == "sys" &&
			len(r.Messages) == 1 && r.Messages[0].Content == "user prompt"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Flexible automations"}},
	}, nil)

	g := NewAnthropicGenerator(client, testAnthropicConfig)
	text, err := g.Generate(context.Background(), Request{
		SystemPrompt: "sys",
		UserPrompt:   "user prompt",
		MaxTokens:    60,
		Kind:         "cell",
	})
	require.NoError(t, err)
	assert.Equal(t, "Flexible automations", text)
	client.AssertExpectations(t)
}

func TestAnthropicGenerator_TransientStatus(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.Error{StatusCode: 529, Err: errors.New("overloaded")})

	g := NewAnthropicGenerator(client, testAnthropicConfig)
	_, err := g.Generate(context.Background(), Request{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestAnthropicGenerator_PermanentStatus(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.Error{StatusCode: 401, Err: errors.New("unauthorized")})

	g := NewAnthropicGenerator(client, testAnthropicConfig)
	_, err := g.Generate(context.Background(), Request{UserPrompt: "x"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "insight: generate")
}

func TestNewGenerator_UnconfiguredIsNil(t *testing.T) {
	assert.Nil(t, NewGenerator(&config.Config{}))

	cfg := &config.Config{Anthropic: testAnthropicConfig}
	assert.NotNil(t, NewGenerator(cfg))
}
