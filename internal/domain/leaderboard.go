package domain

import "time"

// UnknownProduct is used when a line item carries no usable name
const UnknownProduct = "unknown"

// DefaultTopN is the leaderboard size pushed to dashboards
const DefaultTopN = 20

// LeaderboardEntry is the cumulative quantity sold for one product
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// LineItem is one (product, quantity) pair extracted from a verified webhook
type LineItem struct {
	Name     string
	Quantity int64
}

// Feed event types
const (
	FeedEventConnected   = "connected"
	FeedEventLeaderboard = "leaderboard"
)

// FeedEvent is the JSON object carried by one live feed frame
type FeedEvent struct {
	Type string             `json:"type"`
	Data []LeaderboardEntry `json:"data,omitempty"`
	Ts   string             `json:"ts"`
}

// NewLeaderboardEvent builds a leaderboard snapshot frame stamped at now
func NewLeaderboardEvent(entries []LeaderboardEntry, now time.Time) FeedEvent {
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return FeedEvent{
		Type: FeedEventLeaderboard,
		Data: entries,
		Ts:   FormatTimestamp(now),
	}
}

// NewConnectedEvent builds the greeting sent to a freshly subscribed client
func NewConnectedEvent(now time.Time) FeedEvent {
	return FeedEvent{Type: FeedEventConnected, Ts: FormatTimestamp(now)}
}

// FormatTimestamp renders t as UTC RFC3339 with milliseconds
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
