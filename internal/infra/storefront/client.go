package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"salesboard/internal/domain"
)

// Client is the storefront REST API client (Boundary Layer)
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     domain.TokenSource
	logger     *slog.Logger
}

// NewClient creates a client authenticating with bearer tokens from tokens
func NewClient(baseURL string, tokens domain.TokenSource, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     slog.Default().With("module", "storefront_client"),
	}
}

// purchasesResponse tolerates the count being reported as count, total, or only as a data page
type purchasesResponse struct {
	Count *int64            `json:"count"`
	Total *int64            `json:"total"`
	Data  []json.RawMessage `json:"data"`
}

// PurchasesCount asks the API how many purchases exist
func (c *Client) PurchasesCount(ctx context.Context) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/purchases")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, domain.NewNetworkError("purchases", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status=%d body=%s", domain.ErrUpstream, resp.StatusCode, string(bodyBytes))
	}

	var out purchasesResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return 0, fmt.Errorf("failed to parse purchases response: %w", err)
	}

	switch {
	case out.Count != nil:
		return *out.Count, nil
	case out.Total != nil:
		return *out.Total, nil
	default:
		return int64(len(out.Data)), nil
	}
}

// invalidateToken drops a token the API no longer accepts so the next call exchanges a new one
func (c *Client) invalidateToken() {
	if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
		inv.Invalidate()
		c.logger.Warn("Access token rejected by API, cache invalidated")
	}
}

// doRequest attaches the bearer token and sends the request
func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Storefront request failed", slog.String("path", path), slog.Any("error", err))
		return nil, domain.NewNetworkError("purchases", err)
	}
	return resp, nil
}
