package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spigell/autofiller/internal/ai"
)

const defaultMaxTokens = 2048

// Generator implements ai.Generator using Anthropic's Claude
type Generator struct {
	client *anthropic.Client
	model  string
}

// NewGenerator creates a Claude generator. Extra request options, such as a base URL,
// are passed to the SDK client.
func NewGenerator(apiKey, model string, opts ...option.RequestOption) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("claude: %w", ai.ErrMissingAPIKey)
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	if model = strings.TrimSpace(model); model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &Generator{
		client: &client,
		model:  model,
	}, nil
}

// GenerateContent sends one user message under the given system prompt and returns the
// first text block of the answer.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return "", fmt.Errorf("Claude API error: %w: %w", ai.ErrInvalidAPIKey, err)
		}
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}

	return "", errors.New("empty response from Claude")
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}
