package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense-go/internal/config"
	"finsense-go/internal/logger"
)

func fastRetry(n int) RetryOptions {
	return RetryOptions{MaxRetries: n, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

// scripted fails with the given errors in order, then answers.
func scripted(calls *int, errs ...error) Client {
	return ClientFunc(func(ctx context.Context, req Request) (string, error) {
		i := *calls
		*calls++
		if i < len(errs) {
			return "", errs[i]
		}
		return "answer: " + req.Prompt, nil
	})
}

func status(code int) error {
	return &StatusError{Provider: "fake", StatusCode: code, Err: errors.New(http.StatusText(code))}
}

func TestStatusError_Classification(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, status(429), ErrRateLimited)
	assert.ErrorIs(t, status(401), ErrAuth)
	assert.ErrorIs(t, status(403), ErrAuth)
	assert.NotErrorIs(t, status(500), ErrRateLimited)

	assert.True(t, Retryable(status(429)))
	assert.True(t, Retryable(status(503)))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.False(t, Retryable(status(401)))
	assert.False(t, Retryable(status(400)))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(nil))
}

func TestWithRetry_RecoversFromThrottling(t *testing.T) {
	t.Parallel()

	var calls int
	c := WithRetry(scripted(&calls, status(429), status(502)), fastRetry(3), logger.Discard())

	out, err := c.Complete(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer: q", out)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_BoundedAndTyped(t *testing.T) {
	t.Parallel()

	var calls int
	always := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "", status(429)
	})

	_, err := WithRetry(always, fastRetry(2), logger.Discard()).Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestWithRetry_AuthNotRetried(t *testing.T) {
	t.Parallel()

	var calls int
	c := WithRetry(scripted(&calls, status(401)), fastRetry(5), logger.Discard())

	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ZeroRetries(t *testing.T) {
	t.Parallel()

	var calls int
	c := WithRetry(scripted(&calls, status(500)), fastRetry(0), logger.Discard())

	_, err := c.Complete(context.Background(), Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := New(config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = New(config.LLMConfig{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = New(config.LLMConfig{Provider: "palm"})
	assert.Error(t, err)
}

func TestNew_WithKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	c, err := New(config.LLMConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = New(config.LLMConfig{Provider: "Anthropic"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)
}
