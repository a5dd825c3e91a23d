package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"salesboard/internal/domain"
	"salesboard/internal/infra"
)

func nextFrame(t *testing.T, c *Client) domain.FeedEvent {
	t.Helper()
	select {
	case frame := <-c.Messages():
		var ev domain.FeedEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("Frame is not JSON: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for frame")
	}
	return domain.FeedEvent{}
}

func TestSubscribe_SendsConnected(t *testing.T) {
	m := infra.NewMetrics()
	b := NewBroadcaster(m)

	c := b.Subscribe()
	if ev := nextFrame(t, c); ev.Type != domain.FeedEventConnected {
		t.Errorf("Expected connected event, got %s", ev.Type)
	}
	if b.Len() != 1 {
		t.Errorf("Expected 1 client, got %d", b.Len())
	}
	if m.Snapshot().ActiveClients != 1 {
		t.Errorf("Expected active_clients 1, got %d", m.Snapshot().ActiveClients)
	}

	b.Unsubscribe(c)
	b.Unsubscribe(c)
	if b.Len() != 0 {
		t.Errorf("Expected 0 clients, got %d", b.Len())
	}
	if m.Snapshot().ActiveClients != 0 {
		t.Errorf("Double unsubscribe must not double count, got %d", m.Snapshot().ActiveClients)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Unsubscribed client should be done")
	}
}

func TestPublish_FansOutToAll(t *testing.T) {
	b := NewBroadcaster(nil)
	clients := []*Client{b.Subscribe(), b.Subscribe(), b.Subscribe()}
	for _, c := range clients {
		nextFrame(t, c)
	}

	entries := []domain.LeaderboardEntry{{Name: "Coffee", Count: 2}, {Name: "Tea", Count: 1}}
	if err := b.Publish(domain.NewLeaderboardEvent(entries, time.Now())); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, c := range clients {
		ev := nextFrame(t, c)
		if ev.Type != domain.FeedEventLeaderboard {
			t.Errorf("client %d: expected leaderboard, got %s", i, ev.Type)
		}
		if len(ev.Data) != 2 || ev.Data[0].Name != "Coffee" || ev.Data[0].Count != 2 {
			t.Errorf("client %d: unexpected data %+v", i, ev.Data)
		}
	}
}

func TestPublish_DropsSlowClient(t *testing.T) {
	b := NewBroadcaster(nil)
	b.buffer = 2

	slow := b.Subscribe() // greeting occupies one slot and is never drained
	fast := b.Subscribe()
	nextFrame(t, fast)

	ev := domain.NewLeaderboardEvent(nil, time.Now())
	if err := b.Publish(ev); err != nil {
		t.Fatalf("First publish should fit: %v", err)
	}
	nextFrame(t, fast)

	err := b.Publish(ev)
	if !errors.Is(err, domain.ErrClientSlow) {
		t.Fatalf("Expected ErrClientSlow, got %v", err)
	}
	nextFrame(t, fast)

	if b.Len() != 1 {
		t.Errorf("Slow client should be removed, %d left", b.Len())
	}
	select {
	case <-slow.Done():
	default:
		t.Error("Slow client should be done")
	}
}

func TestPublish_NoClients(t *testing.T) {
	m := infra.NewMetrics()
	b := NewBroadcaster(m)
	if err := b.Publish(domain.NewLeaderboardEvent(nil, time.Now())); err != nil {
		t.Errorf("Publish with no clients should succeed: %v", err)
	}
	if m.Snapshot().Publishes != 1 {
		t.Errorf("Expected 1 publish, got %d", m.Snapshot().Publishes)
	}
}

func TestClose(t *testing.T) {
	b := NewBroadcaster(nil)
	c := b.Subscribe()
	b.Close()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Client should be done after Close")
	}

	late := b.Subscribe()
	select {
	case <-late.Done():
	default:
		t.Error("Subscribe after Close should return a done client")
	}
	if b.Len() != 0 {
		t.Errorf("Expected empty set, got %d", b.Len())
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := NewBroadcaster(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := b.Subscribe()
			b.Unsubscribe(c)
		}()
		go func() {
			defer wg.Done()
			b.Publish(domain.NewLeaderboardEvent(nil, time.Now()))
		}()
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Errorf("Expected all clients gone, got %d", b.Len())
	}
}
