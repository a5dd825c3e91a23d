package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"salesboard/internal/domain"
)

// maxTokenBody caps how much of a token endpoint response is read
const maxTokenBody = 64 << 10

// PostTokenForm sends a form-encoded token request and decodes the OAuth response.
// decorate may add auth headers. Non-2xx answers become *domain.UpstreamAuthError.
func PostTokenForm(ctx context.Context, client *http.Client, provider domain.Provider, tokenURL string, form url.Values, decorate func(*http.Request)) (domain.TokenResponse, error) {
	var out domain.TokenResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return out, domain.NewNetworkError("token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	if err != nil {
		return out, domain.NewNetworkError("token", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &domain.UpstreamAuthError{Provider: provider, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode %s token response: %w", provider, err)
	}
	if out.AccessToken == "" {
		return out, &domain.UpstreamAuthError{Provider: provider, Status: resp.StatusCode, Body: "response carried no access_token"}
	}
	return out, nil
}
