package domain

import "time"

// TokenSafetyMargin is how long before expiry a cached token stops being handed out
const TokenSafetyMargin = 60 * time.Second

// AccessToken is a provider bearer token with its absolute expiry.
// Instances are replaced wholesale on refresh, never mutated.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// IsFresh reports whether the token may still be returned at now
func (t *AccessToken) IsFresh(now time.Time) bool {
	if t == nil || t.Value == "" {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-TokenSafetyMargin))
}

// TokenResponse is the standard OAuth token endpoint payload
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in"` // seconds until expiry
	Scope       string `json:"scope,omitempty"`
}
