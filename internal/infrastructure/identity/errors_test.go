package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/resilience"
)

func TestClassifyProviderCodes(t *testing.T) {
	cases := []struct {
		code      string
		want      Category
		retryable bool
	}{
		{CodeInvalidCredential, CategoryInvalidCredentials, false},
		{CodeUserNotFound, CategoryInvalidCredentials, false},
		{CodeWrongPassword, CategoryInvalidCredentials, false},
		{CodeEmailInUse, CategoryInvalidCredentials, false},
		{CodeTokenExpired, CategorySessionExpired, false},
		{CodeTokenRevoked, CategorySessionExpired, false},
		{CodeUserDisabled, CategoryPermissionDenied, false},
		{CodeTooManyRequests, CategoryRateLimited, true},
		{CodeNetworkFailed, CategoryNetworkUnavailable, true},
		{CodeInternalError, CategoryServiceUnavailable, true},
		{"auth/some-new-code", CategoryUnknown, false},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			got := Classify(&ProviderError{Code: tc.code})
			if got.Category != tc.want {
				t.Errorf("category = %s, want %s", got.Category, tc.want)
			}
			if got.Retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", got.Retryable, tc.retryable)
			}
			if got.UserMessage == "" {
				t.Error("user message must never be empty")
			}
		})
	}
}

func TestClassifyTimeouts(t *testing.T) {
	te := &resilience.TimeoutError{Op: "sign-in", Limit: 0}
	got := Classify(te)
	if got.Category != CategoryTimeout {
		t.Fatalf("category = %s, want %s", got.Category, CategoryTimeout)
	}
	if !got.Retryable {
		t.Fatal("timeouts must classify as retryable")
	}

	got = Classify(context.DeadlineExceeded)
	if got.Category != CategoryTimeout {
		t.Fatalf("deadline exceeded category = %s, want %s", got.Category, CategoryTimeout)
	}
}

func TestClassifyCircuitOpen(t *testing.T) {
	got := Classify(resilience.ErrCircuitOpen)
	if got.Category != CategoryServiceUnavailable {
		t.Fatalf("category = %s, want %s", got.Category, CategoryServiceUnavailable)
	}
	if !got.Retryable {
		t.Fatal("open circuit must classify as retryable")
	}
}

func TestClassifyMessageHeuristics(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"dial tcp 10.0.0.1:443: connection refused", CategoryNetworkUnavailable},
		{"lookup auth.example.com: no such host", CategoryNetworkUnavailable},
		{"unexpected status: 503 service unavailable", CategoryServiceUnavailable},
		{"got 429 too many requests", CategoryRateLimited},
		{"something odd happened", CategoryUnknown},
	}
	for _, tc := range cases {
		got := Classify(errors.New(tc.msg))
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.msg, got.Category, tc.want)
		}
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	original := Classify(&ProviderError{Code: CodeWrongPassword})
	again := Classify(original)
	if again != original {
		t.Fatal("already classified errors must pass through unchanged")
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}
	if IsRetryable(nil) {
		t.Fatal("nil error is not retryable")
	}
}
