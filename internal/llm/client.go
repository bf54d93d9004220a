// Package llm is the boundary to hosted language models. Clients are constructed
// explicitly by the caller and passed to whatever needs them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"finsense-go/internal/config"
)

var (
	// ErrRateLimited is returned when the provider keeps throttling after all retries.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrAuth is returned for missing or rejected credentials. It is never retried.
	ErrAuth = errors.New("llm: authentication failed")
)

type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return []error{e.Err, ErrRateLimited}
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return []error{e.Err, ErrAuth}
	}
	return []error{e.Err}
}

// Retryable reports whether err is worth another attempt: throttling, server errors,
// or a transport failure without a status.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrAuth) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

// New builds the configured provider client for model, reading the key from the
// provider's usual environment variable. It is not wrapped with retries.
func New(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", ErrAuth)
		}
		return NewOpenAI(key), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set: %w", ErrAuth)
		}
		return NewAnthropic(key), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
