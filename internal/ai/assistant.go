package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/logger"
	"github.com/spigell/autofiller/internal/utils"
)

var (
	ErrNoFields      = errors.New("no fields provided")
	ErrMissingAPIKey = errors.New("missing API key")
	ErrMissingResume = errors.New("missing resume")
	// ErrInvalidAPIKey is wrapped by providers when the model API rejects the key.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrNoJSON is returned when the model answer holds no well-formed JSON object.
	ErrNoJSON = errors.New("no JSON object found in response")
)

// Request is the payload the page side sends to the value resolver.
type Request struct {
	Fields     []form.Descriptor `json:"fields"`
	UserResume string            `json:"userResume"`
	APIKey     string            `json:"apiKey"`
	URL        string            `json:"url"`
	Title      string            `json:"title"`
	// Instructions is optional applicant guidance. It takes precedence over the
	// assistant's configured overrides.
	Instructions string `json:"instructions,omitempty"`
}

// Validate checks the request the way the backend does before calling a model.
func (r Request) Validate() error {
	switch {
	case len(r.Fields) == 0:
		return ErrNoFields
	case strings.TrimSpace(r.APIKey) == "":
		return ErrMissingAPIKey
	case strings.TrimSpace(r.UserResume) == "":
		return ErrMissingResume
	default:
		return nil
	}
}

// Response is the resolver reply. Message and Error are set on failure only.
type Response struct {
	Success     bool         `json:"success"`
	FieldValues form.Mapping `json:"fieldValues,omitempty"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ResolveError is the normalized failure of a resolver call. Message is the short
// user-facing text, Detail the longer diagnostic. Err is the transport or decoding
// failure behind it, if any.
type ResolveError struct {
	Message string
	Detail  string
	Err     error
}

func (e *ResolveError) Error() string {
	if e.Detail == "" {
		return e.Message
	}

	return e.Message + ": " + e.Detail
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolver turns descriptors and a résumé into a value mapping.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (form.Mapping, error)
}

// Generator is a text model behind a system instruction and a single user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// GeneratorFactory builds a generator for the API key carried by one request.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

const defaultMaxLogLength = 200

// Assistant resolves values by prompting a model and parsing its JSON answer.
type Assistant struct {
	newGenerator GeneratorFactory
	provider     string
	logger       *zap.Logger
	maxLogLen    int
	overrides    PromptOverrides
}

// NewAssistant creates an assistant. provider is only used to label log entries.
func NewAssistant(factory GeneratorFactory, provider string, log *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Assistant{
		newGenerator: factory,
		provider:     provider,
		logger:       log,
		maxLogLen:    maxLogLength,
	}
}

// SetPromptOverrides replaces the optional applicant instructions added to prompts.
func (a *Assistant) SetPromptOverrides(o PromptOverrides) {
	a.overrides = o
}

// Resolve validates req, prompts the model and returns the string values it produced.
func (a *Assistant) Resolve(ctx context.Context, req Request) (form.Mapping, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gen, err := a.newGenerator(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	log := logger.WithCommonFields(a.logger, a.provider, gen.Model())
	message := BuildPrompt(req, a.overrides)

	log.Debug("generate content request",
		zap.String("url", req.URL),
		zap.Int("fields", len(req.Fields)),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, a.maxLogLen)),
	)

	raw, err := gen.GenerateContent(ctx, SystemInstruction(), message)
	if err != nil {
		return nil, err
	}

	log.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	values, err := ParseValues(raw)
	if err != nil {
		return nil, err
	}

	log.Info("form values resolved", zap.Int("values", len(values)))

	return values, nil
}
