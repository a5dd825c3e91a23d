// Package auth caches provider OAuth tokens and performs the token endpoint round trip.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salesboard/internal/domain"

	"golang.org/x/sync/singleflight"
)

// Exchanger performs one provider-specific credential exchange
type Exchanger interface {
	Provider() domain.Provider
	// CheckConfig returns a *domain.ConfigError when required credentials are unset
	CheckConfig() error
	Exchange(ctx context.Context) (domain.TokenResponse, error)
}

// TokenCache holds a single access token for one provider and refreshes it on demand.
// Concurrent callers during a refresh share the in-flight exchange.
type TokenCache struct {
	exchanger Exchanger
	now       func() time.Time
	onRefresh func()

	mu    sync.RWMutex
	token *domain.AccessToken

	group  singleflight.Group
	logger *slog.Logger
}

// NewTokenCache creates an empty cache around exchanger
func NewTokenCache(exchanger Exchanger) *TokenCache {
	return &TokenCache{
		exchanger: exchanger,
		now:       time.Now,
		logger:    slog.Default().With("module", "token_cache", "provider", string(exchanger.Provider())),
	}
}

// OnRefresh registers a callback invoked after every successful exchange
func (c *TokenCache) OnRefresh(fn func()) {
	c.onRefresh = fn
}

// Token returns the cached token if it is outside the safety margin, otherwise exchanges for a new one.
// On failure the cache is left untouched so the next call tries again.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != "" {
		return tok, nil
	}

	if err := c.exchanger.CheckConfig(); err != nil {
		return "", err
	}

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		if tok := c.cached(); tok != "" {
			return tok, nil
		}
		// Shared by every waiter; one caller leaving must not fail the rest
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *TokenCache) cached() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token.IsFresh(c.now()) {
		return c.token.Value
	}
	return ""
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	issuedAt := c.now()
	resp, err := c.exchanger.Exchange(ctx)
	if err != nil {
		c.logger.Warn("Token exchange failed", slog.Any("error", err))
		return "", err
	}

	tok := &domain.AccessToken{
		Value:     resp.AccessToken,
		ExpiresAt: issuedAt.Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	if c.onRefresh != nil {
		c.onRefresh()
	}
	c.logger.Info("Token refreshed", slog.Time("expires_at", tok.ExpiresAt))
	return tok.Value, nil
}

// Invalidate drops the cached token
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}
