package service

import (
	"context"
	"fmt"
	"net/http"

	"salesboard/internal/domain"
)

// VerifierChain tries provider verifiers in order; the first whose Matches accepts the
// headers decides the outcome. Order matters: put the most specific header set first.
type VerifierChain struct {
	verifiers []domain.WebhookVerifier
}

// NewVerifierChain builds a chain from verifiers in priority order
func NewVerifierChain(verifiers ...domain.WebhookVerifier) *VerifierChain {
	return &VerifierChain{verifiers: verifiers}
}

// Verify runs the first matching verifier against the raw body
func (c *VerifierChain) Verify(ctx context.Context, h http.Header, body []byte) (domain.Outcome, error) {
	for _, v := range c.verifiers {
		if !v.Matches(h) {
			continue
		}
		out, err := v.Verify(ctx, h, body)
		if err != nil {
			return domain.Rejected(v.Provider(), "verification error"), fmt.Errorf("%s verify: %w", v.Provider(), err)
		}
		return out, nil
	}
	return domain.Rejected(domain.ProviderNone, "no verifier matched request headers"), nil
}
