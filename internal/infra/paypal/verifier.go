package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"salesboard/internal/domain"
)

// Verifier asks PayPal to verify a webhook delivery.
// Explicit non-SUCCESS answers are rejections; transport and token-endpoint failures are
// returned as errors so the caller can answer 500.
type Verifier struct {
	baseURL    string
	webhookID  string
	tokens     domain.TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVerifier creates a Verifier for webhookID against baseURL
func NewVerifier(baseURL, webhookID string, tokens domain.TokenSource, httpClient *http.Client) *Verifier {
	return &Verifier{
		baseURL:    baseURL,
		webhookID:  webhookID,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     slog.Default().With("module", "paypal_verifier"),
	}
}

func (v *Verifier) Provider() domain.Provider { return domain.ProviderPayPal }

// Matches requires all five transmission headers
func (v *Verifier) Matches(h http.Header) bool {
	for _, name := range TransmissionHeaders {
		if h.Get(name) == "" {
			return false
		}
	}
	return true
}

func (v *Verifier) Verify(ctx context.Context, h http.Header, body []byte) (domain.Outcome, error) {
	if v.webhookID == "" {
		v.logger.Warn("Webhook rejected: webhook id not configured")
		return domain.Rejected(domain.ProviderPayPal, "webhook id not configured"), nil
	}
	if !json.Valid(body) {
		return domain.Rejected(domain.ProviderPayPal, "body is not valid JSON"), nil
	}

	token, err := v.tokens.Token(ctx)
	if err != nil {
		var ce *domain.ConfigError
		if errors.As(err, &ce) {
			v.logger.Warn("Webhook rejected: credentials not configured", slog.String("field", ce.Field))
			return domain.Rejected(domain.ProviderPayPal, "credentials not configured"), nil
		}
		return domain.Outcome{}, fmt.Errorf("obtain token: %w", err)
	}

	payload, err := buildVerifyPayload(verifyRequest{
		AuthAlgo:         h.Get(HeaderAuthAlgo),
		CertURL:          h.Get(HeaderCertURL),
		TransmissionID:   h.Get(HeaderTransmissionID),
		TransmissionSig:  h.Get(HeaderTransmissionSig),
		TransmissionTime: h.Get(HeaderTransmissionTime),
		WebhookID:        v.webhookID,
	}, body)
	if err != nil {
		return domain.Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+verifyPath, bytes.NewReader(payload))
	if err != nil {
		return domain.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return domain.Outcome{}, domain.NewNetworkError("verify", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Outcome{}, domain.NewNetworkError("verify", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Warn("Verification call rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("transmission_id", h.Get(HeaderTransmissionID)),
		)
		return domain.Rejected(domain.ProviderPayPal, fmt.Sprintf("verification endpoint returned %d", resp.StatusCode)), nil
	}

	var out verifyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return domain.Rejected(domain.ProviderPayPal, "unreadable verification response"), nil
	}
	if out.VerificationStatus != VerificationSuccess {
		v.logger.Warn("Webhook verification failed",
			slog.String("status", out.VerificationStatus),
			slog.String("transmission_id", h.Get(HeaderTransmissionID)),
		)
		return domain.Rejected(domain.ProviderPayPal, "verification_status "+out.VerificationStatus), nil
	}

	return domain.Accepted(domain.ProviderPayPal), nil
}
