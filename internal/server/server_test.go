package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/form"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type resolverFunc func(context.Context, ai.Request) (form.Mapping, error)

func (f resolverFunc) Resolve(ctx context.Context, req ai.Request) (form.Mapping, error) {
	return f(ctx, req)
}

const validBody = `{
	"url": "https://jobs.example.com/apply",
	"title": "Apply",
	"userResume": "Jane Doe, Go engineer",
	"apiKey": "key",
	"fields": [{"id": "name", "name": "full_name", "type": "text", "label": "Full Name", "value": "", "required": true}]
}`

func post(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, ai.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/process-form", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "chrome-extension://abcdef")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp ai.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())

	return w, resp
}

func TestProcessForm(t *testing.T) {
	var got ai.Request
	s := New(Config{}, resolverFunc(func(_ context.Context, req ai.Request) (form.Mapping, error) {
		got = req
		return form.Mapping{"Full Name": "Jane Doe"}, nil
	}), nil)

	w, resp := post(t, s, validBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, form.Mapping{"Full Name": "Jane Doe"}, resp.FieldValues)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	require.Len(t, got.Fields, 1)
	assert.True(t, got.Fields[0].Required)
	assert.Equal(t, "Jane Doe, Go engineer", got.UserResume)
}

func TestProcessFormErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{
			name:    "malformed json",
			body:    `{"fields": [`,
			status:  http.StatusBadRequest,
			message: "Invalid form data. No fields provided.",
		},
		{
			name:    "no fields",
			body:    `{"apiKey": "key", "userResume": "Jane"}`,
			status:  http.StatusBadRequest,
			message: "Invalid form data. No fields provided.",
		},
		{
			name:    "no api key",
			body:    `{"fields": [{"id": "a"}], "userResume": "Jane"}`,
			status:  http.StatusBadRequest,
			message: "Missing API key. Please provide a Gemini API key.",
		},
		{
			name:    "no resume",
			body:    `{"fields": [{"id": "a"}], "apiKey": "key"}`,
			status:  http.StatusBadRequest,
			message: "Missing resume. Please provide resume information.",
		},
		{
			name:    "rejected key",
			body:    validBody,
			err:     fmt.Errorf("generate: %w", ai.ErrInvalidAPIKey),
			status:  http.StatusUnauthorized,
			message: "Invalid API key. Please check your Gemini API key and try again.",
		},
		{
			name:    "provider message mentions key",
			body:    validBody,
			err:     errors.New("API key not valid. Please pass a valid API key."),
			status:  http.StatusUnauthorized,
			message: "Invalid API key. Please check your Gemini API key and try again.",
		},
		{
			name:    "model failure",
			body:    validBody,
			err:     ai.ErrNoJSON,
			status:  http.StatusInternalServerError,
			message: "An error occurred while processing the form data with AI.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			s := New(Config{}, resolverFunc(func(context.Context, ai.Request) (form.Mapping, error) {
				called = true
				return nil, tt.err
			}), nil)

			w, resp := post(t, s, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.err != nil, called, "resolver must only run for valid requests")
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), resp.Error)
			}
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	s := New(Config{AllowOrigins: []string{"https://jobs.example.com"}}, resolverFunc(func(context.Context, ai.Request) (form.Mapping, error) {
		return nil, nil
	}), nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	preflight := httptest.NewRequest(http.MethodOptions, "/api/process-form", nil)
	preflight.Header.Set("Origin", "https://jobs.example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, preflight)
	assert.Equal(t, "https://jobs.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	denied := httptest.NewRequest(http.MethodGet, "/health", nil)
	denied.Header.Set("Origin", "https://evil.example.com")

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, denied)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
