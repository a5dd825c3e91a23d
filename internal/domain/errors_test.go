package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("verify", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "verify: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "verify: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewNetworkError("token", baseErr)
		plain := errors.New("plain error")

		if !IsRetriable(retriable) {
			t.Error("IsRetriable should return true for retriable error")
		}
		if IsRetriable(plain) {
			t.Error("IsRetriable should return false for plain error")
		}
		if IsRetriable(NewMissingConfigError("paypal.client_id")) {
			t.Error("IsRetriable should return false for config error")
		}
	})
}

func TestConfigError(t *testing.T) {
	err := NewMissingConfigError("storefront.api_key")

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [storefront.api_key]: missing credential"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	wrapped := fmt.Errorf("token: %w", err)
	var ce *ConfigError
	if !errors.As(wrapped, &ce) {
		t.Fatal("errors.As should find ConfigError through wrapping")
	}
	if !errors.Is(wrapped, ErrMissingCredential) {
		t.Error("Expected wrapped error to match ErrMissingCredential")
	}
}

func TestUpstreamAuthError(t *testing.T) {
	err := &UpstreamAuthError{Provider: ProviderPayPal, Status: 401, Body: `{"error":"invalid_client"}`}

	want := `paypal token exchange rejected: status=401 body={"error":"invalid_client"}`
	if err.Error() != want {
		t.Errorf("Error message = %q, want %q", err.Error(), want)
	}
	if err.IsRetriable() {
		t.Error("4xx rejection should not be retriable")
	}

	if !(&UpstreamAuthError{Status: 503}).IsRetriable() {
		t.Error("5xx rejection should be retriable")
	}
}

func TestParseFailure(t *testing.T) {
	base := errors.New("unexpected end of JSON input")
	err := &ParseFailure{Stage: "payload", Err: base}

	if err.Error() != "parse payload: unexpected end of JSON input" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("ParseFailure should unwrap to its cause")
	}
}

func TestOutcomeErr(t *testing.T) {
	if err := Accepted(ProviderPayPal).Err(); err != nil {
		t.Errorf("Accepted outcome should have no error, got %v", err)
	}

	err := Rejected(ProviderStorefront, "signature mismatch").Err()
	var vf *VerificationFailure
	if !errors.As(err, &vf) {
		t.Fatalf("Expected VerificationFailure, got %T", err)
	}
	if vf.Provider != ProviderStorefront || vf.Reason != "signature mismatch" {
		t.Errorf("Unexpected failure %+v", vf)
	}
}
