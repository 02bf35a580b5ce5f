package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestExecuteWithResult_PrimarySuccess(t *testing.T) {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{MaxFailures: 3})
	fg.AddFallback("secondary", "secondary")

	result, err := ExecuteWithResult(fg, func(v string) (string, error) {
		return "from-" + v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from-primary" {
		t.Fatalf("result = %q, want from-primary", result)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{MaxFailures: 3})
	fg.AddFallback("secondary", "secondary")

	result, err := ExecuteWithResult(fg, func(v string) (string, error) {
		if v == "primary" {
			return "", errTest
		}
		return "from-" + v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from-secondary" {
		t.Fatalf("result = %q, want from-secondary", result)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{MaxFailures: 3})
	fg.AddFallback("secondary", "secondary")

	_, err := ExecuteWithResult(fg, func(v string) (string, error) {
		return "", errTest
	})
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestExecuteWithResult_SkipsOpenProvider(t *testing.T) {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})
	fg.AddFallback("secondary", "secondary")

	// Fail the primary enough to open its breaker.
	for i := 0; i < 2; i++ {
		_, _ = ExecuteWithResult(fg, func(v string) (string, error) {
			if v == "primary" {
				return "", errTest
			}
			return v, nil
		})
	}

	// The primary's breaker is now open, so calls go straight to secondary.
	var called string
	_, err := ExecuteWithResult(fg, func(v string) (string, error) {
		called = v
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "secondary" {
		t.Fatalf("called = %q, want secondary (primary circuit should be open)", called)
	}
}
