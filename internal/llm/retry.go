package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"finsense-go/internal/logger"
)

type RetryOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryOptions(maxRetries int) RetryOptions {
	return RetryOptions{
		MaxRetries:      maxRetries,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
	}
}

type retryClient struct {
	next Client
	opts RetryOptions
	log  *logger.Logger
}

// WithRetry retries throttling and server errors with exponential backoff, at most
// opts.MaxRetries extra attempts. Auth failures return immediately.
func WithRetry(c Client, opts RetryOptions, log *logger.Logger) Client {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &retryClient{next: c, opts: opts, log: log.Component("llm.retry")}
}

func (r *retryClient) Complete(ctx context.Context, req Request) (string, error) {
	var (
		out      string
		attempts int
	)
	operation := func() error {
		attempts++
		resp, err := r.next.Complete(ctx, req)
		if err != nil {
			if !Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = resp
		return nil
	}

	bo := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.opts.InitialInterval),
		backoff.WithMaxInterval(r.opts.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.opts.MaxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		r.log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempts,
			"wait":    wait.String(),
		}).Warn("llm call failed; retrying")
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return "", fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}
		return "", err
	}
	return out, nil
}
