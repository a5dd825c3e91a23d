package domain

import (
	"context"
	"net/http"
	"time"
)

// WebhookVerifier is one provider-specific signature scheme.
// Matches decides by header sniffing; Verify consumes the exact raw body.
// A non-nil error means verification could not be carried out (infrastructure failure),
// as opposed to a Rejected outcome.
type WebhookVerifier interface {
	Provider() Provider
	Matches(h http.Header) bool
	Verify(ctx context.Context, h http.Header, body []byte) (Outcome, error)
}

// TokenSource hands out a bearer token for one provider
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// FeedPublisher receives leaderboard snapshots for live clients
type FeedPublisher interface {
	Publish(ev FeedEvent) error
}

// Delivery is one journaled webhook request
type Delivery struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	RequestID  string    `json:"request_id"`
	Provider   string    `gorm:"index" json:"provider"`
	Accepted   bool      `gorm:"index" json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	Items      int       `json:"items"`
	BodyBytes  int       `json:"body_bytes"`
	ReceivedAt time.Time `gorm:"index" json:"received_at"`
}

// DeliveryJournal records webhook outcomes for diagnosis
type DeliveryJournal interface {
	Record(ctx context.Context, d *Delivery) error
	Recent(ctx context.Context, limit int) ([]Delivery, error)
}
