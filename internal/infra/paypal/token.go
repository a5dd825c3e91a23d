package paypal

import (
	"context"
	"net/http"
	"net/url"

	"salesboard/internal/domain"
	"salesboard/internal/infra/auth"
)

// TokenExchanger performs the client-credentials grant with HTTP Basic auth
type TokenExchanger struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
}

// NewTokenExchanger creates an exchanger against baseURL (sandbox or live host)
func NewTokenExchanger(clientID, clientSecret, baseURL string, httpClient *http.Client) *TokenExchanger {
	return &TokenExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		httpClient:   httpClient,
	}
}

func (e *TokenExchanger) Provider() domain.Provider { return domain.ProviderPayPal }

func (e *TokenExchanger) CheckConfig() error {
	if e.clientID == "" {
		return domain.NewMissingConfigError("paypal.client_id")
	}
	if e.clientSecret == "" {
		return domain.NewMissingConfigError("paypal.client_secret")
	}
	return nil
}

func (e *TokenExchanger) Exchange(ctx context.Context) (domain.TokenResponse, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	return auth.PostTokenForm(ctx, e.httpClient, domain.ProviderPayPal, e.baseURL+tokenPath, form, func(r *http.Request) {
		r.SetBasicAuth(e.clientID, e.clientSecret)
	})
}
