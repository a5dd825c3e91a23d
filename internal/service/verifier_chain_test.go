package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"salesboard/internal/domain"
)

type stubVerifier struct {
	provider domain.Provider
	header   string
	outcome  domain.Outcome
	err      error
	calls    int
}

func (s *stubVerifier) Provider() domain.Provider { return s.provider }

func (s *stubVerifier) Matches(h http.Header) bool {
	return s.header == "" || h.Get(s.header) != ""
}

func (s *stubVerifier) Verify(ctx context.Context, h http.Header, body []byte) (domain.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

func TestVerifierChain_FirstMatchWins(t *testing.T) {
	b := &stubVerifier{provider: domain.ProviderPayPal, header: "Paypal-Transmission-Id", outcome: domain.Accepted(domain.ProviderPayPal)}
	a := &stubVerifier{provider: domain.ProviderStorefront, outcome: domain.Accepted(domain.ProviderStorefront)}
	chain := NewVerifierChain(b, a)

	h := http.Header{}
	h.Set("Paypal-Transmission-Id", "abc")
	out, err := chain.Verify(context.Background(), h, []byte(`{}`))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !out.Accepted || out.Provider != domain.ProviderPayPal {
		t.Errorf("Expected paypal accept, got %+v", out)
	}
	if a.calls != 0 {
		t.Error("Fallback verifier should not run when an earlier one matches")
	}
}

func TestVerifierChain_FallsThrough(t *testing.T) {
	b := &stubVerifier{provider: domain.ProviderPayPal, header: "Paypal-Transmission-Id"}
	a := &stubVerifier{provider: domain.ProviderStorefront, outcome: domain.Rejected(domain.ProviderStorefront, "signature mismatch")}
	chain := NewVerifierChain(b, a)

	out, err := chain.Verify(context.Background(), http.Header{}, []byte(`{}`))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if out.Accepted {
		t.Error("Expected rejection")
	}
	if out.Reason != "signature mismatch" {
		t.Errorf("Unexpected reason %q", out.Reason)
	}
	if b.calls != 0 || a.calls != 1 {
		t.Errorf("Unexpected calls: paypal=%d storefront=%d", b.calls, a.calls)
	}
}

func TestVerifierChain_ErrorPropagates(t *testing.T) {
	base := domain.NewNetworkError("verify", errors.New("dial tcp: timeout"))
	v := &stubVerifier{provider: domain.ProviderPayPal, err: base}

	out, err := NewVerifierChain(v).Verify(context.Background(), http.Header{}, nil)
	if err == nil {
		t.Fatal("Expected error")
	}
	var ne *domain.NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("Expected NetworkError in chain, got %v", err)
	}
	if out.Accepted {
		t.Error("Errored verification must not be accepted")
	}
}

func TestVerifierChain_NoMatch(t *testing.T) {
	v := &stubVerifier{provider: domain.ProviderPayPal, header: "X-Never"}
	out, err := NewVerifierChain(v).Verify(context.Background(), http.Header{}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Accepted {
		t.Error("Expected rejection when no verifier matches")
	}
}
