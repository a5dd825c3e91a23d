// Package realtime fans leaderboard snapshots out to live dashboard connections
// over Server-Sent Events and WebSocket.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"salesboard/internal/domain"
	"salesboard/internal/infra"

	"github.com/google/uuid"
)

// DefaultClientBuffer is the number of frames a client may lag behind before it is dropped
const DefaultClientBuffer = 16

// Client is one live feed subscription.
// Membership in the broadcaster's set is its only state.
type Client struct {
	id        string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// ID returns the subscription identifier used in logs
func (c *Client) ID() string { return c.id }

// Messages yields serialized frames in publish order
func (c *Client) Messages() <-chan []byte { return c.send }

// Done is closed once the client has been removed from the set
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// offer queues frame without blocking
func (c *Client) offer(frame []byte) error {
	select {
	case <-c.done:
		return domain.ErrClientClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return domain.ErrClientSlow
	}
}

// Broadcaster holds the set of connected clients and implements domain.FeedPublisher.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	buffer  int
	now     func() time.Time
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewBroadcaster creates an empty broadcaster. metrics may be nil.
func NewBroadcaster(metrics *infra.Metrics) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*Client]struct{}),
		buffer:  DefaultClientBuffer,
		now:     time.Now,
		metrics: metrics,
		logger:  slog.Default().With("module", "broadcaster"),
	}
}

// Subscribe adds a client and queues the connected greeting for it.
// After Close the returned client is already done.
func (b *Broadcaster) Subscribe() *Client {
	c := newClient(b.buffer)

	greeting, err := json.Marshal(domain.NewConnectedEvent(b.now()))
	if err == nil {
		c.send <- greeting
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		c.close()
		return c
	}
	b.clients[c] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncrementClients()
	}
	b.logger.Debug("Client subscribed", slog.String("client", c.id), slog.Int("clients", total))
	return c
}

// Unsubscribe removes c from the set. Safe to call more than once.
func (b *Broadcaster) Unsubscribe(c *Client) {
	if c == nil {
		return
	}

	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()

	c.close()
	if ok {
		if b.metrics != nil {
			b.metrics.DecrementClients()
		}
		b.logger.Debug("Client unsubscribed", slog.String("client", c.id))
	}
}

// Publish serializes ev once and offers the frame to every client in a snapshot of the set.
// Clients that cannot take the frame are removed after the loop; their errors are joined.
func (b *Broadcaster) Publish(ev domain.FeedEvent) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode feed event: %w", err)
	}

	b.mu.RLock()
	snapshot := make([]*Client, 0, len(b.clients))
	for c := range b.clients {
		snapshot = append(snapshot, c)
	}
	b.mu.RUnlock()

	var failed []*Client
	var errs []error
	for _, c := range snapshot {
		if err := c.offer(frame); err != nil {
			failed = append(failed, c)
			errs = append(errs, fmt.Errorf("client %s: %w", c.id, err))
		}
	}

	for _, c := range failed {
		b.Unsubscribe(c)
	}

	if b.metrics != nil {
		b.metrics.RecordPublish()
	}
	if len(failed) > 0 {
		b.logger.Warn("Dropped clients during publish",
			slog.Int("dropped", len(failed)),
			slog.Int("delivered", len(snapshot)-len(failed)),
		)
	}
	return errors.Join(errs...)
}

// Len returns the number of connected clients
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close removes every client so stream handlers return. Later subscriptions are closed immediately.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.closed = true
	clients := b.clients
	b.clients = make(map[*Client]struct{})
	b.mu.Unlock()

	for c := range clients {
		c.close()
		if b.metrics != nil {
			b.metrics.DecrementClients()
		}
	}
	b.logger.Info("Broadcaster closed", slog.Int("clients", len(clients)))
}
