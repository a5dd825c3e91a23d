package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	webhooksAccepted atomic.Uint64
	webhooksRejected atomic.Uint64
	webhooksFailed   atomic.Uint64 // verification infrastructure failures
	parseFailures    atomic.Uint64
	itemsApplied     atomic.Uint64
	publishes        atomic.Uint64
	tokenRefreshes   atomic.Uint64

	// Gauges
	activeClients atomic.Int32
}

// NewMetrics creates a zeroed Metrics
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordAccepted() { m.webhooksAccepted.Add(1) }
func (m *Metrics) RecordRejected() { m.webhooksRejected.Add(1) }
func (m *Metrics) RecordFailed() { m.webhooksFailed.Add(1) }
func (m *Metrics) RecordParseFailure() { m.parseFailures.Add(1) }
func (m *Metrics) RecordPublish() { m.publishes.Add(1) }
func (m *Metrics) RecordTokenRefresh() { m.tokenRefreshes.Add(1) }
func (m *Metrics) IncrementClients() { m.activeClients.Add(1) }
func (m *Metrics) DecrementClients() { m.activeClients.Add(-1) }

// RecordItems adds n applied line items.
func (m *Metrics) RecordItems(n int) {
	if n > 0 {
		m.itemsApplied.Add(uint64(n))
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	WebhooksAccepted uint64    `json:"webhooks_accepted"`
	WebhooksRejected uint64    `json:"webhooks_rejected"`
	WebhooksFailed   uint64    `json:"webhooks_failed"`
	ParseFailures    uint64    `json:"parse_failures"`
	ItemsApplied     uint64    `json:"items_applied"`
	Publishes        uint64    `json:"publishes"`
	TokenRefreshes   uint64    `json:"token_refreshes"`
	ActiveClients    int32     `json:"active_clients"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		WebhooksAccepted: m.webhooksAccepted.Load(),
		WebhooksRejected: m.webhooksRejected.Load(),
		WebhooksFailed:   m.webhooksFailed.Load(),
		ParseFailures:    m.parseFailures.Load(),
		ItemsApplied:     m.itemsApplied.Load(),
		Publishes:        m.publishes.Load(),
		TokenRefreshes:   m.tokenRefreshes.Load(),
		ActiveClients:    m.activeClients.Load(),
		Timestamp:        time.Now(),
	}
}
