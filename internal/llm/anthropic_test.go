package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDraft(t *testing.T) {
	var gotReq messagesRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := messagesResponse{
			ID:    "msg_01",
			Type:  "message",
			Role:  "assistant",
			Model: "claude-sonnet-4-20250514",
			Content: []content{
				{Type: "text", Text: "# Rollout Plan\n\n1. Pilot\n"},
			},
		}
		resp.Usage.InputTokens = 120
		resp.Usage.OutputTokens = 480

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewAnthropicClient(Config{APIKey: "test-key", Model: "claude-sonnet-4-20250514"})
	client.baseURL = server.URL

	gen, err := client.GenerateDraft(context.Background(), &GenerateRequest{
		Prompt:    "draft a rollout plan",
		Context:   "two-person team, six week deadline",
		MaxTokens: 2_000,
	})
	require.NoError(t, err)

	assert.Equal(t, "# Rollout Plan\n\n1. Pilot", gen.Text)
	assert.Equal(t, 600, gen.TokensUsed())
	assert.InDelta(t, 120*3.00/1e6+480*15.00/1e6, gen.Cost, 1e-9)

	// request carries the bounded max tokens and the project context
	assert.Equal(t, 2_000, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "two-person team")
	assert.Contains(t, gotReq.Messages[0].Content, "draft a rollout plan")
}

func TestGenerateDraftCapsMaxTokens(t *testing.T) {
	var gotReq messagesRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := messagesResponse{Content: []content{{Type: "text", Text: "ok"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewAnthropicClient(Config{APIKey: "k", Model: "claude-3-haiku-20240307", MaxTokens: 1_000})
	client.baseURL = server.URL

	_, err := client.GenerateDraft(context.Background(), &GenerateRequest{Prompt: "p", MaxTokens: 50_000})
	require.NoError(t, err)

	assert.Equal(t, 1_000, gotReq.MaxTokens)
}

func TestGenerateDraftAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
	}))
	defer server.Close()

	client := NewAnthropicClient(Config{APIKey: "k", Model: "claude-3-haiku-20240307"})
	client.baseURL = server.URL

	_, err := client.GenerateDraft(context.Background(), &GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 529")
}

func TestCostOfUnknownModelFallsBack(t *testing.T) {
	known := costOf("claude-sonnet-4-20250514", 1_000, 1_000)
	unknown := costOf("claude-future-model", 1_000, 1_000)

	assert.Equal(t, known, unknown)
}
