package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/spigell/autofiller/internal/ai"
)

const defaultModel = "gpt-4o"

// Generator implements ai.Generator using the OpenAI chat completions API
type Generator struct {
	client *gopenai.Client
	model  string
}

// NewGenerator creates an OpenAI generator. An empty baseURL uses the public API.
func NewGenerator(apiKey, model, baseURL string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ai.ErrMissingAPIKey)
	}

	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		client: gopenai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateContent sends the system and user messages and returns the first choice.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	messages := make([]gopenai.ChatCompletionMessage, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, gopenai.ChatCompletionMessage{
			Role:    gopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, gopenai.ChatCompletionMessage{
		Role:    gopenai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := g.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		var apiErr *gopenai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
			return "", fmt.Errorf("OpenAI API error: %w: %w", ai.ErrInvalidAPIKey, err)
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}
