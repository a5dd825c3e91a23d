package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"salesboard/internal/domain"
	"salesboard/internal/infra/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	grantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime  = 5 * time.Minute
)

// TokenExchanger performs the JWT-bearer grant: an HS256 assertion signed with the API key
type TokenExchanger struct {
	clientID   string
	apiKey     string
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time
}

// NewTokenExchanger creates an exchanger for the storefront token endpoint
func NewTokenExchanger(clientID, apiKey, tokenURL string, httpClient *http.Client) *TokenExchanger {
	return &TokenExchanger{
		clientID:   clientID,
		apiKey:     apiKey,
		tokenURL:   tokenURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (e *TokenExchanger) Provider() domain.Provider { return domain.ProviderStorefront }

// CheckConfig fails fast when the client id or API key is unset
func (e *TokenExchanger) CheckConfig() error {
	if e.clientID == "" {
		return domain.NewMissingConfigError("storefront.client_id")
	}
	if e.apiKey == "" {
		return domain.NewMissingConfigError("storefront.api_key")
	}
	return nil
}

// Exchange signs a fresh assertion and trades it for an access token
func (e *TokenExchanger) Exchange(ctx context.Context) (domain.TokenResponse, error) {
	assertion, err := e.assertion()
	if err != nil {
		return domain.TokenResponse{}, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {grantTypeJWTBearer},
		"assertion":  {assertion},
	}
	return auth.PostTokenForm(ctx, e.httpClient, domain.ProviderStorefront, e.tokenURL, form, nil)
}

func (e *TokenExchanger) assertion() (string, error) {
	now := e.now()
	claims := jwt.RegisteredClaims{
		Issuer:    e.clientID,
		Subject:   e.clientID,
		Audience:  jwt.ClaimStrings{e.tokenURL},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e.apiKey))
}
