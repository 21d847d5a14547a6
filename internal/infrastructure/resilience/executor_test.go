package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(breaker bool) Policy {
	return Policy{
		Retry: Retry{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: Breaker{
			Enabled:          breaker,
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      50 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		},
	}
}

func TestExecuteRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(fastPolicy(false), nil)

	attempts := 0
	errTransient := errors.New("connection reset")
	err := exec.Execute(context.Background(), "vector_search", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTransient), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastPolicy(false), nil)

	attempts := 0
	errBadInput := errors.New("empty question")
	err := exec.Execute(context.Background(), "generate", func(context.Context) error {
		attempts++
		return errBadInput
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errBadInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("permanent failure must not be retried, got %d attempts", attempts)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	exec := NewExecutor(fastPolicy(false), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errTransient := errors.New("timeout")
	attempts := 0
	err := exec.Execute(ctx, "generate", func(context.Context) error {
		attempts++
		cancel()
		return errTransient
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected last backend error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("cancelled context must stop the retry loop, got %d attempts", attempts)
	}
}

func TestExecuteOpensCircuitAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy(true)
	policy.Retry.MaxAttempts = 1
	exec := NewExecutor(policy, nil)

	errDown := errors.New("backend down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "tables", func(context.Context) error {
			return errDown
		}, classifier)
		if !errors.Is(err, errDown) {
			t.Fatalf("iteration %d: expected backend error, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "tables", func(context.Context) error {
		t.Fatal("open circuit must not reach the backend")
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	policy := fastPolicy(true)
	policy.Retry.MaxAttempts = 1
	exec := NewExecutor(policy, nil)

	errDown := errors.New("backend down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "generate", func(context.Context) error {
			return errDown
		}, classifier)
	}

	err := exec.Execute(context.Background(), "vector_search", func(context.Context) error {
		return nil
	}, classifier)
	if err != nil {
		t.Fatalf("unrelated operation should stay closed, got %v", err)
	}
}
