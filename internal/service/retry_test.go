package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Slydexx/esthetica-app/internal/gemini"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	policy := retryPolicy{Attempts: 3, Backoff: time.Millisecond}

	calls := 0
	err := policy.run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	policy := retryPolicy{Attempts: 3, Backoff: time.Millisecond}

	calls := 0
	sentinel := errors.New("still broken")
	err := policy.run(context.Background(), func() error {
		calls++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	// Initial attempt plus three retries.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestRetryNeverRetriesAuthFailures(t *testing.T) {
	policy := retryPolicy{Attempts: 3, Backoff: time.Millisecond}

	calls := 0
	authErr := &gemini.APIError{StatusCode: http.StatusForbidden, Message: "bad key"}
	err := policy.run(context.Background(), func() error {
		calls++
		return authErr
	})

	if !errors.Is(err, authErr) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	policy := retryPolicy{Attempts: 5, Backoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.run(ctx, func() error {
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
