package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/form"
)

const (
	DefaultURL     = "http://localhost:3000"
	DefaultTimeout = 60 * time.Second

	processFormPath = "/api/process-form"
	maxBodyBytes    = 1 << 20
)

// Client resolves values through the backend's process-form endpoint. Every
// failure reaches the caller as an *ai.ResolveError.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// New builds a client for baseURL. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse resolver url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("resolver url %q: scheme must be http or https", baseURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint: u.String() + processFormPath,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

type processFormResponse struct {
	Success     bool           `json:"success"`
	FieldValues map[string]any `json:"fieldValues"`
	Message     string         `json:"message"`
	Error       string         `json:"error"`
}

func (c *Client) Resolve(ctx context.Context, req ai.Request) (form.Mapping, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ai.ResolveError{Message: "Failed to encode form data.", Detail: err.Error(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ai.ResolveError{Message: "Failed to build request.", Detail: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &ai.ResolveError{
			Message: "Could not reach the form processing server.",
			Detail:  err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	c.logger.Debug("process-form answered",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var out processFormResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := out.Message
		if decodeErr != nil || message == "" {
			message = fmt.Sprintf("API request failed with status %d", resp.StatusCode)
		}
		return nil, &ai.ResolveError{Message: message, Detail: out.Error}
	}

	if decodeErr != nil {
		return nil, &ai.ResolveError{
			Message: "Invalid response from the form processing server.",
			Detail:  decodeErr.Error(),
			Err:     decodeErr,
		}
	}

	if !out.Success {
		message := out.Message
		if message == "" {
			message = "Unknown server error"
		}
		return nil, &ai.ResolveError{Message: message, Detail: out.Error}
	}

	if out.FieldValues == nil {
		err := errors.New("fieldValues missing")
		return nil, &ai.ResolveError{
			Message: "Invalid response from the form processing server.",
			Detail:  err.Error(),
			Err:     err,
		}
	}

	return ai.CoerceValues(out.FieldValues), nil
}
