// Package gemini builds the Google Gemini provider for the ADK model.LLM interface.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	adkgemini "google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// DefaultModel is the multimodal model used for sign reading.
const DefaultModel = "gemini-2.5-flash"

// Config for Gemini
type Config struct {
	APIKey string
	Model  string
}

// NewModel connects to the Gemini API with an API key.
func NewModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	llm, err := adkgemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}
	return llm, nil
}
