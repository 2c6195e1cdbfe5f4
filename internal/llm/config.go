package llm

import (
	"fmt"
	"os"
	"strconv"
)

// loadConfig loads drafting client configuration from environment variables
func loadConfig() (*Config, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	model := os.Getenv("GENERATOR_MODEL")
	if model == "" {
		model = "claude-sonnet-4-20250514" // default
	}

	maxTokens := defaultMaxTokens
	if maxTokensStr := os.Getenv("GENERATOR_MAX_TOKENS"); maxTokensStr != "" {
		if val, err := strconv.Atoi(maxTokensStr); err == nil {
			maxTokens = val
		}
	}

	temperature := float32(defaultTemperature)
	if tempStr := os.Getenv("GENERATOR_TEMPERATURE"); tempStr != "" {
		if val, err := strconv.ParseFloat(tempStr, 32); err == nil {
			temperature = float32(val)
		}
	}

	return &Config{
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// creates the drafting client with auto-configuration from environment
// variables
func NewGenerator() (TextGenerator, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load generator config: %w", err)
	}

	return NewAnthropicClient(*config), nil
}
