package main

import (
	"fmt"

	"codeberg.org/planhub/server/internal/llm"
)

// creates and configures all service clients
func InitializeServices() (*Services, error) {
	generator, err := llm.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create drafting client: %w", err)
	}

	return &Services{
		Generator: generator,
	}, nil
}
