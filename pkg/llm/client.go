package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Message is a single turn in a chat exchange. Role is either "user" or
// "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chatter is the language-model boundary the pipeline stages depend on.
// Implementations send a system prompt plus an ordered message list to a
// hosted chat model and return the assistant's raw text.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// Client implements Chatter on top of a langchaingo model. It carries no
// retry or backoff logic of its own; malformed or empty responses are
// handled by the JSON-fallback logic in the stages.
type Client struct {
	model llms.Model
}

func NewClient(model llms.Model) *Client {
	return &Client{model: model}
}

func (c *Client) Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	if systemPrompt != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return resp.Choices[0].Content, nil
}
