package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// defaultDimension matches the embedding table layout used by the
// pgvector store.
const defaultDimension = 1536

// GoogleEmbedder produces embedding vectors via the Gemini API.
type GoogleEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

func NewGoogleEmbedder(ctx context.Context, model, apiKey string) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	return &GoogleEmbedder{
		client:    client,
		model:     model,
		dimension: defaultDimension,
	}, nil
}

// Dimension reports the configured output dimensionality.
func (e *GoogleEmbedder) Dimension() int {
	return int(e.dimension)
}

// EmbedText generates an embedding vector for a single text.
func (e *GoogleEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	dim := e.dimension
	res, err := e.client.Models.EmbedContent(ctx, e.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: text},
			},
		},
	}, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return res.Embeddings[0].Values, nil
}

// EmbedTexts generates embedding vectors for multiple texts. Requests run
// sequentially; the batch limits of the API vary across models.
func (e *GoogleEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		result = append(result, vec)
	}
	return result, nil
}
