package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable.
// Nothing in salesboard retries automatically; the flag is informational for logs.
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport failure talking to an upstream provider
type NetworkError struct {
	Op        string // Operation that failed (e.g., "token", "verify", "purchases")
	Err       error  // Underlying error
	Retriable bool
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// ConfigError represents a missing or invalid credential/secret (never retriable).
// It is raised before any network call is attempted.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewMissingConfigError reports an unset required field
func NewMissingConfigError(field string) *ConfigError {
	return &ConfigError{Field: field, Err: ErrMissingCredential}
}

// UpstreamAuthError is returned when a provider token endpoint rejects the exchange
type UpstreamAuthError struct {
	Provider Provider
	Status   int
	Body     string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("%s token exchange rejected: status=%d body=%s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamAuthError) IsRetriable() bool {
	return e.Status >= 500
}

// VerificationFailure means the webhook signature did not check out
type VerificationFailure struct {
	Provider Provider
	Reason   string
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("%s verification failed: %s", e.Provider, e.Reason)
}

// ParseFailure means a verified body (or its nested payload) was not valid JSON
type ParseFailure struct {
	Stage string // "body" or "payload"
	Err   error
}

func (e *ParseFailure) Error() string {
	return "parse " + e.Stage + ": " + e.Err.Error()
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingCredential is wrapped by ConfigError when a secret or client id is unset.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUpstream is returned when a provider REST call answers with a non-success status.
	ErrUpstream = errors.New("upstream request failed")

	// ErrClientClosed is returned when publishing to a client that has been unsubscribed.
	ErrClientClosed = errors.New("client closed")

	// ErrClientSlow is returned when a client's outbound buffer is full.
	ErrClientSlow = errors.New("client buffer full")
)
