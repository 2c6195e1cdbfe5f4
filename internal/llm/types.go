package llm

import "context"

// generates plan and proposal drafts from a prompt
type TextGenerator interface {
	GenerateDraft(ctx context.Context, req *GenerateRequest) (*Generation, error)
	Model() string
}

// GenerateRequest carries one drafting call. MaxTokens caps the response and
// is already bounded by the caller's tier before it reaches the client.
type GenerateRequest struct {
	Prompt  string
	Context string

	MaxTokens   int
	Temperature float32
}

// Generation is a completed drafting call with its token accounting
type Generation struct {
	Text string

	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// total tokens billed against the caller's quota
func (g *Generation) TokensUsed() int {
	return g.InputTokens + g.OutputTokens
}

// holds configuration for the drafting client
type Config struct {
	APIKey      string
	Model       string // e.g., "claude-sonnet-4-20250514"
	MaxTokens   int
	Temperature float32
}
