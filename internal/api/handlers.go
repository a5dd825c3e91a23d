package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"salesboard/internal/domain"
	"salesboard/internal/infra"
	"salesboard/internal/infra/storage"
	"salesboard/internal/realtime"
	"salesboard/internal/service"
)

// MaxWebhookBody bounds the raw body read from a webhook request
const MaxWebhookBody = 1 << 20

// Verifier decides whether a raw webhook request is authentic
type Verifier interface {
	Verify(ctx context.Context, h http.Header, body []byte) (domain.Outcome, error)
}

// PurchaseCounter fetches the diagnostic purchase count from the storefront API
type PurchaseCounter interface {
	PurchasesCount(ctx context.Context) (int64, error)
}

// App holds the process-scoped state shared by all handlers
type App struct {
	Verifier    Verifier
	Processor   *service.Processor
	Board       *service.Leaderboard
	Purchases   PurchaseCounter
	Journal     domain.DeliveryJournal // nil disables /deliveries and recording
	Broadcaster *realtime.Broadcaster
	Metrics     *infra.Metrics
	StaticDir   string
	KeepAlive   time.Duration

	started time.Time
	logger  *slog.Logger
}

// NewApp fills in defaults for an App built by the caller
func NewApp(a App) *App {
	a.started = time.Now()
	a.logger = slog.Default().With("module", "api")
	if a.Metrics == nil {
		a.Metrics = infra.NewMetrics()
	}
	return &a
}

func (a *App) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID := RequestIDFromContext(r.Context())
	received := time.Now().UTC()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Could not read body", http.StatusBadRequest)
		return
	}

	outcome, err := a.Verifier.Verify(r.Context(), r.Header, body)
	if err != nil {
		a.Metrics.RecordFailed()
		a.logger.Error("Webhook verification could not complete",
			slog.String("provider", string(outcome.Provider)),
			slog.String("request_id", reqID),
			slog.Bool("retriable", domain.IsRetriable(err)),
			slog.Any("error", err),
		)
		a.record(r.Context(), reqID, outcome, 0, len(body), received)
		http.Error(w, "Verification error", http.StatusInternalServerError)
		return
	}

	if !outcome.Accepted {
		a.Metrics.RecordRejected()
		a.logger.Warn("Webhook rejected",
			slog.String("request_id", reqID),
			slog.Any("error", outcome.Err()),
		)
		a.record(r.Context(), reqID, outcome, 0, len(body), received)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	a.Metrics.RecordAccepted()

	// Acknowledge before processing; nothing after this point changes the response
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	items, err := a.Processor.Process(outcome.Provider, body)
	if err != nil {
		var pf *domain.ParseFailure
		if errors.As(err, &pf) {
			a.Metrics.RecordParseFailure()
		}
		a.logger.Warn("Webhook body dropped after ack",
			slog.String("provider", string(outcome.Provider)),
			slog.String("request_id", reqID),
			slog.Any("error", err),
		)
	} else {
		a.Metrics.RecordItems(items)
	}

	a.record(r.Context(), reqID, outcome, items, len(body), received)
}

// record journals a delivery; failures are logged and never affect the response
func (a *App) record(ctx context.Context, reqID string, out domain.Outcome, items, size int, at time.Time) {
	if a.Journal == nil {
		return
	}
	d := &domain.Delivery{
		RequestID:  reqID,
		Provider:   string(out.Provider),
		Accepted:   out.Accepted,
		Reason:     out.Reason,
		Items:      items,
		BodyBytes:  size,
		ReceivedAt: at,
	}
	if err := a.Journal.Record(context.WithoutCancel(ctx), d); err != nil {
		a.logger.Warn("Failed to journal delivery", slog.String("request_id", reqID), slog.Any("error", err))
	}
}

func (a *App) purchasesCountHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := a.Purchases.PurchasesCount(r.Context())
	if err != nil {
		var ce *domain.ConfigError
		if errors.As(err, &ce) {
			a.logger.Error("Purchases count unavailable", slog.String("field", ce.Field))
			http.Error(w, "Configuration error: "+ce.Error(), http.StatusInternalServerError)
			return
		}
		a.logger.Warn("Purchases count upstream failure",
			slog.Bool("retriable", domain.IsRetriable(err)),
			slog.Any("error", err),
		)
		http.Error(w, "Upstream error: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Purchases: %d\n", n)
}

func (a *App) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, domain.NewLeaderboardEvent(a.Board.Top(domain.DefaultTopN), time.Now()))
}

func (a *App) deliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.Journal == nil {
		WriteJSONError(w, http.StatusNotFound, "journal_disabled", "")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "invalid_limit", err.Error())
			return
		}
		limit = n
	}

	rows, err := a.Journal.Recent(r.Context(), storage.ClampLimit(limit))
	if err != nil {
		a.logger.Error("Failed to read journal", slog.Any("error", err))
		WriteJSONError(w, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}
	if rows == nil {
		rows = []domain.Delivery{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type healthResp struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if a.Broadcaster != nil {
		clients = a.Broadcaster.Len()
	}
	writeJSON(w, http.StatusOK, healthResp{
		Status:  "ok",
		Uptime:  time.Since(a.started).Truncate(time.Second).String(),
		Clients: clients,
	})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Metrics.Snapshot())
}
