package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultKeepAlive is the interval between SSE comment pings and WebSocket pings
const DefaultKeepAlive = 25 * time.Second

// SSEHandler streams feed frames as text/event-stream
type SSEHandler struct {
	broadcaster *Broadcaster
	keepAlive   time.Duration
	logger      *slog.Logger
}

// NewSSEHandler creates an SSE endpoint. keepAlive <= 0 uses DefaultKeepAlive.
func NewSSEHandler(b *Broadcaster, keepAlive time.Duration) *SSEHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &SSEHandler{
		broadcaster: b,
		keepAlive:   keepAlive,
		logger:      slog.Default().With("module", "sse"),
	}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(client)

	h.logger.Info("SSE client connected", slog.String("client", client.ID()), slog.String("remote", r.RemoteAddr))

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", slog.String("client", client.ID()))
			return
		case <-client.Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case frame := <-client.Messages():
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				h.logger.Debug("SSE write failed", slog.String("client", client.ID()), slog.Any("error", err))
				return
			}
			flusher.Flush()
		}
	}
}
