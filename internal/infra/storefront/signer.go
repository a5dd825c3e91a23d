// Package storefront implements the shared-secret webhook scheme, the JWT-bearer token
// exchange and the purchases REST API of the storefront provider.
package storefront

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"salesboard/internal/domain"
)

// digestPrefixLen is how many hex characters of a digest may appear in logs
const digestPrefixLen = 12

// Verifier checks the HMAC-SHA256 signature header against the raw request body.
// It is the fallback verifier: it matches every request.
type Verifier struct {
	secret string
	header string
	logger *slog.Logger
}

// NewVerifier creates a Verifier reading the signature from header
func NewVerifier(secret, header string) *Verifier {
	return &Verifier{
		secret: secret,
		header: header,
		logger: slog.Default().With("module", "storefront_verifier"),
	}
}

func (v *Verifier) Provider() domain.Provider { return domain.ProviderStorefront }

func (v *Verifier) Matches(h http.Header) bool { return true }

// Verify accepts the body when the header equals the hex HMAC computed with the secret
// taken as text, or with the secret base64-decoded. The upstream key encoding is
// ambiguous, so both are tried.
func (v *Verifier) Verify(ctx context.Context, h http.Header, body []byte) (domain.Outcome, error) {
	if v.secret == "" {
		v.logger.Warn("Webhook rejected: signing secret not configured")
		return domain.Rejected(domain.ProviderStorefront, "signing secret not configured"), nil
	}

	received := strings.ToLower(strings.TrimSpace(h.Get(v.header)))
	if received == "" {
		return domain.Rejected(domain.ProviderStorefront, "missing signature header"), nil
	}

	textDigest := computeHmacSha256Hex(body, []byte(v.secret))
	if digestEqual(received, textDigest) {
		return domain.Accepted(domain.ProviderStorefront), nil
	}

	var decodedDigest string
	if key, err := base64.StdEncoding.DecodeString(v.secret); err == nil && len(key) > 0 {
		decodedDigest = computeHmacSha256Hex(body, key)
		if digestEqual(received, decodedDigest) {
			return domain.Accepted(domain.ProviderStorefront), nil
		}
	}

	v.logger.Warn("Webhook signature mismatch",
		slog.String("received", prefix(received)),
		slog.String("expected_text", prefix(textDigest)),
		slog.String("expected_b64", prefix(decodedDigest)),
	)
	return domain.Rejected(domain.ProviderStorefront, "signature mismatch"), nil
}

// Sign returns the hex signature a sender would put in the header for body
func Sign(body []byte, secret string) string {
	return computeHmacSha256Hex(body, []byte(secret))
}

func computeHmacSha256Hex(message, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// digestEqual is a length-checked constant-time comparison
func digestEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func prefix(s string) string {
	if len(s) > digestPrefixLen {
		return s[:digestPrefixLen]
	}
	return s
}
