package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"butternut/internal/config"
	"butternut/internal/domain/client"
)

var ErrEmptyCompletion = errors.New("completion returned no content")

// OpenAICompleter generates one personalized email body per customer via
// chat completion. The business context and the customer's attributes are
// passed as system messages, the campaign prompt as the user message.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(cfg config.OpenAIConfig) *OpenAICompleter {
	return &OpenAICompleter{client: openai.NewClient(cfg.APIKey), model: cfg.Model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, businessContext string, customer client.CustomerRecord, prompt string) (string, error) {
	customerJSON, err := json.Marshal(customer)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: businessContext},
			{Role: openai.ChatMessageRoleSystem, Content: "Customer data: " + string(customerJSON)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
