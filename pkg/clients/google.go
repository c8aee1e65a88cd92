package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// ModelType is an enum for the available Google AI models.
type ModelType string

const (
	// DefaultModel is the default model to use if none is specified
	DefaultModel ModelType = "gemini-3-flash-preview"
	ProModel     ModelType = "gemini-3-pro-preview"
)

// GoogleAI creates a langchaingo model backed by the Gemini API.
func GoogleAI(ctx context.Context, model string, apiKey string) (*googleai.GoogleAI, error) {
	if model == "" {
		model = string(DefaultModel)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is not set")
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google AI model: %w", err)
	}

	return llm, nil
}
