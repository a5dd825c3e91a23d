package api

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// HeaderRequestID carries the request identifier in both directions
const HeaderRequestID = "X-Request-Id"

// RequestIDFromContext returns the ID assigned by WithRequestID, or ""
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// statusRecorder keeps Flush and Hijack reachable for SSE and WebSocket handlers
type statusRecorder struct {
	w  http.ResponseWriter
	st int
	n  int
}

func (r *statusRecorder) Header() http.Header { return r.w.Header() }

func (r *statusRecorder) WriteHeader(code int) {
	r.st = code
	r.w.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.w.Write(b)
	r.n += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.w.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	// Upgraded connections report 101
	r.st = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.w }

// WithRequestID reuses an inbound X-Request-Id or mints a UUID
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

// WithLogging logs one line per request after the handler returns
func WithLogging(next http.Handler) http.Handler {
	logger := slog.Default().With("module", "http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{w: w, st: http.StatusOK}
		next.ServeHTTP(sr, r)
		logger.Info("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sr.st),
			slog.Int("bytes", sr.n),
			slog.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}
