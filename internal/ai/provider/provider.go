package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/ai/claude"
	"github.com/spigell/autofiller/internal/ai/gemini"
	"github.com/spigell/autofiller/internal/ai/openai"
)

const (
	Gemini = "gemini"
	Claude = "claude"
	OpenAI = "openai"
)

// Config selects the model backend used by the server.
type Config struct {
	Name       string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
	// BaseURL overrides the OpenAI endpoint, e.g. for compatible gateways.
	BaseURL string `mapstructure:"base-url"`
}

// Normalize lower-cases the provider name, maps aliases and defaults to Gemini.
func Normalize(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Gemini, "google":
		return Gemini
	case Claude, "anthropic":
		return Claude
	case OpenAI, "gpt":
		return OpenAI
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// Validate reports unsupported providers.
func (c Config) Validate() error {
	switch Normalize(c.Name) {
	case Gemini, Claude, OpenAI:
		return nil
	default:
		return fmt.Errorf("unknown provider: %s (supported: gemini, claude, openai)", c.Name)
	}
}

// Factory returns an ai.GeneratorFactory building a generator per request key.
func Factory(cfg Config, logger *zap.Logger) (ai.GeneratorFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := Normalize(cfg.Name)

	return func(ctx context.Context, apiKey string) (ai.Generator, error) {
		var (
			gen ai.Generator
			err error
		)

		switch name {
		case Claude:
			gen, err = claude.NewGenerator(apiKey, cfg.Model)
		case OpenAI:
			gen, err = openai.NewGenerator(apiKey, cfg.Model, cfg.BaseURL)
		default:
			gen, err = gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, logger)
		}
		if err != nil {
			return nil, err
		}

		return gen, nil
	}, nil
}
