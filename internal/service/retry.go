package service

import (
	"context"
	"time"

	"github.com/Slydexx/esthetica-app/internal/gemini"
)

// retryPolicy bounds remote-call retries: up to Attempts retries with
// exponential backoff starting at Backoff. Authorization failures are never
// retried; they propagate immediately.
type retryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p retryPolicy) run(ctx context.Context, op func() error) error {
	delay := p.Backoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if gemini.IsAuthError(lastErr) {
			return lastErr
		}
		if attempt >= p.Attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
