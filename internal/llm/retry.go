package llm

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
	maxRetryInterval   = 20 * time.Second
)

type retryingClient struct {
	base        Client
	provider    string
	maxAttempts int
	baseDelay   time.Duration
}

// WithRetry retries base with exponential backoff, up to maxAttempts calls in
// total. Permanent errors are returned immediately.
func WithRetry(base Client, provider string, maxAttempts int, baseDelay time.Duration) Client {
	if base == nil {
		return nil
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &retryingClient{base: base, provider: provider, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *retryingClient) Generate(ctx context.Context, req Request) (string, error) {
	var out string
	attempt := 0
	op := func() error {
		attempt++
		start := time.Now()
		resp, err := r.base.Generate(ctx, req)
		metrics.ObserveLLMRequest(r.provider, err, time.Since(start))
		if err != nil {
			if !shouldRetry(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = resp
		return nil
	}
	notify := func(err error, wait time.Duration) {
		telemetry.Warn("llm.retry", map[string]any{
			"provider": r.provider,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
			"error":    err,
		})
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(r.policy(), ctx), notify); err != nil {
		return "", err
	}
	return out, nil
}

func (r *retryingClient) policy() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.baseDelay
	expo.MaxInterval = maxRetryInterval
	expo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(expo, uint64(r.maxAttempts-1))
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
