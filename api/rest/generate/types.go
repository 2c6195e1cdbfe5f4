package generate

// Request represents the request body for plan drafting
type Request struct {
	Prompt string `json:"prompt" binding:"required,max=20000"`

	// optional project the draft belongs to; when set, the gate resolves
	// the caller's use_ai permission on it
	ProjectID string `json:"project_id" binding:"omitempty,uuid"`

	// optional free-form context included ahead of the prompt
	Context string `json:"context" binding:"max=40000"`

	MaxTokens int `json:"max_tokens" binding:"omitempty,min=1"`
}

// Response represents a completed draft
type Response struct {
	Draft string `json:"draft"`

	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}
