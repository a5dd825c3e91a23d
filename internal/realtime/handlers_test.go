package realtime

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salesboard/internal/domain"

	"github.com/gorilla/websocket"
)

// readSSEFrame returns the next data frame, skipping comment lines
func readSSEFrame(t *testing.T, r *bufio.Reader) domain.FeedEvent {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Stream ended: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.FeedEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data: "))), &ev); err != nil {
			t.Fatalf("Bad frame %q: %v", line, err)
		}
		return ev
	}
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, b.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroadcaster(nil)
	server := httptest.NewServer(NewSSEHandler(b, time.Hour))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if ev := readSSEFrame(t, reader); ev.Type != domain.FeedEventConnected {
		t.Fatalf("Expected connected, got %s", ev.Type)
	}

	b.Publish(domain.NewLeaderboardEvent([]domain.LeaderboardEntry{{Name: "Widget", Count: 3}}, time.Now()))
	ev := readSSEFrame(t, reader)
	if ev.Type != domain.FeedEventLeaderboard || len(ev.Data) != 1 || ev.Data[0].Count != 3 {
		t.Errorf("Unexpected event %+v", ev)
	}

	resp.Body.Close()
	waitForClients(t, b, 0)
}

func TestSSEHandler_KeepAlive(t *testing.T) {
	b := NewBroadcaster(nil)
	server := httptest.NewServer(NewSSEHandler(b, 20*time.Millisecond))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for i := 0; i < 10; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Stream ended: %v", err)
		}
		if line == ": ping\n" {
			return
		}
	}
	t.Error("Expected a ping comment")
}

func TestSSEHandler_CloseEndsStream(t *testing.T) {
	b := NewBroadcaster(nil)
	server := httptest.NewServer(NewSSEHandler(b, time.Hour))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readSSEFrame(t, reader)

	b.Close()
	done := make(chan struct{})
	go func() {
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				close(done)
				return
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stream should end after Close")
	}
}

func TestWSHandler(t *testing.T) {
	b := NewBroadcaster(nil)
	server := httptest.NewServer(NewWSHandler(b, time.Hour))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	var ev domain.FeedEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ev.Type != domain.FeedEventConnected {
		t.Fatalf("Expected connected, got %s", ev.Type)
	}

	b.Publish(domain.NewLeaderboardEvent([]domain.LeaderboardEntry{{Name: "Coffee", Count: 2}}, time.Now()))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ev.Type != domain.FeedEventLeaderboard || ev.Data[0].Name != "Coffee" {
		t.Errorf("Unexpected event %+v", ev)
	}

	conn.Close()
	waitForClients(t, b, 0)
}
