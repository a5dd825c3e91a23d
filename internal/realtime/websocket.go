package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 512
)

// WSHandler mirrors the live feed over WebSocket text messages
type WSHandler struct {
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	keepAlive   time.Duration
	logger      *slog.Logger
}

// NewWSHandler creates a WebSocket endpoint. keepAlive <= 0 uses DefaultKeepAlive.
func NewWSHandler(b *Broadcaster, keepAlive time.Duration) *WSHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &WSHandler{
		broadcaster: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard is read-only; any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		keepAlive: keepAlive,
		logger:    slog.Default().With("module", "websocket"),
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	client := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(client)

	h.logger.Info("WebSocket client connected", slog.String("client", client.ID()), slog.String("remote", r.RemoteAddr))

	go h.writeLoop(conn, client)

	// Read only to detect disconnect; inbound messages are ignored
	conn.SetReadLimit(wsMaxMessage)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", slog.String("client", client.ID()), slog.Any("error", err))
			}
			break
		}
	}

	h.logger.Info("WebSocket client disconnected", slog.String("client", client.ID()))
}

// writeLoop is the only writer on conn
func (h *WSHandler) writeLoop(conn *websocket.Conn, client *Client) {
	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("WebSocket writeLoop panic recovered", slog.Any("panic", r))
		}
	}()

	for {
		select {
		case <-client.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteTimeout))
			conn.Close()
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				conn.Close()
				return
			}
		case frame := <-client.Messages():
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("WebSocket write failed", slog.String("client", client.ID()), slog.Any("error", err))
				conn.Close()
				return
			}
		}
	}
}
