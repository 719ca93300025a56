package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messagesAPI serves /v1/messages, recording the decoded request body and
// answering with status and reply.
func messagesAPI(t *testing.T, status int, reply map[string]any) (Client, *map[string]any) {
	t.Helper()
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-insight", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	t.Cleanup(ts.Close)
	return NewClient("sk-insight", option.WithBaseURL(ts.URL), option.WithMaxRetries(0)), &got
}

func message(id, text string, in, out, cacheWrite int) map[string]any {
	return map[string]any{
		"id":          id,
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"usage": map[string]any{
			"input_tokens":                in,
			"output_tokens":               out,
			"cache_creation_input_tokens": cacheWrite,
			"cache_read_input_tokens":     0,
		},
	}
}

func TestCreateMessage_TranslatesResponse(t *testing.T) {
	client, got := messagesAPI(t, http.StatusOK, message("msg_asana", "Strong reporting and portfolio views.", 42, 9, 0))

	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 256,
		Messages:  []Message{{Role: "user", Content: "Summarize Asana for a PMO lead."}},
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_asana", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Strong reporting and portfolio views.", resp.Text())
	assert.Equal(t, TokenUsage{InputTokens: 42, OutputTokens: 9}, resp.Usage)

	assert.Equal(t, "claude-haiku-4-5-20251001", (*got)["model"])
	assert.EqualValues(t, 256, (*got)["max_tokens"])
	assert.NotContains(t, *got, "temperature")
	msgs, ok := (*got)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestCreateMessage_SendsCachedSystemAndTemperature(t *testing.T) {
	client, got := messagesAPI(t, http.StatusOK, message("msg_sys", "ok", 50, 3, 5000))

	temp := 0.2
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System: []SystemBlock{
			{Text: "You write one-paragraph tool recommendations.", CacheControl: &CacheControl{TTL: "1h"}},
		},
		Messages:    []Message{{Role: "user", Content: "Jira"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), resp.Usage.CacheCreationInputTokens)

	assert.InDelta(t, 0.2, (*got)["temperature"], 1e-9)
	system, ok := (*got)["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	block := system[0].(map[string]any)
	assert.Equal(t, "You write one-paragraph tool recommendations.", block["text"])
	assert.Equal(t, "ephemeral", block["cache_control"].(map[string]any)["type"])
}

func TestCreateMessage_APIErrorKeepsStatus(t *testing.T) {
	client, _ := messagesAPI(t, http.StatusTooManyRequests, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	})

	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "Wrike"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}
