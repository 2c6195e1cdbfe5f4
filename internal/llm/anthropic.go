package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	defaultMaxTokens     = 4096
	defaultTemperature   = 0.7
)

// shared HTTP client for Anthropic API calls
var anthropicHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for Anthropic API calls (50 requests/second with burst capacity of 10)
var anthropicRateLimiter = rate.NewLimiter(50, 10)

// per-million-token prices used for usage-log cost attribution; unknown
// models fall back to the sonnet price
var modelPricing = map[string]struct {
	input  float64
	output float64
}{
	"claude-sonnet-4-20250514":  {3.00, 15.00},
	"claude-3-haiku-20240307":   {0.25, 1.25},
	"claude-3-5-haiku-20241022": {0.80, 4.00},
	"claude-opus-4-20250514":    {15.00, 75.00},
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Role    string    `json:"role"`
	Content []content `json:"content"`
	Model   string    `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicClient struct {
	config     Config
	httpClient *http.Client
	baseURL    string
}

func NewAnthropicClient(config Config) *AnthropicClient {
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}

	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}

	return &AnthropicClient{
		config:     config,
		httpClient: anthropicHTTPClient,
		baseURL:    anthropicMessagesURL,
	}
}

func (c *AnthropicClient) Model() string {
	return c.config.Model
}

// sends one drafting call and returns the generated text with its token
// accounting
func (c *AnthropicClient) GenerateDraft(ctx context.Context, req *GenerateRequest) (*Generation, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 || maxTokens > c.config.MaxTokens {
		maxTokens = c.config.MaxTokens
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}

	reqBody := messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      draftingSystemPrompt,
		Messages: []message{
			{
				Role:    "user",
				Content: buildDraftingPrompt(req),
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	// rate limiting
	if err := anthropicRateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(msgResp.Content) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	return &Generation{
		Text:         strings.TrimSpace(msgResp.Content[0].Text),
		Model:        msgResp.Model,
		InputTokens:  msgResp.Usage.InputTokens,
		OutputTokens: msgResp.Usage.OutputTokens,
		Cost:         costOf(c.config.Model, msgResp.Usage.InputTokens, msgResp.Usage.OutputTokens),
	}, nil
}

func costOf(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		pricing = modelPricing["claude-sonnet-4-20250514"]
	}

	return float64(inputTokens)*pricing.input/1_000_000 +
		float64(outputTokens)*pricing.output/1_000_000
}
