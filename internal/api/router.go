package api

import (
	"net/http"

	"salesboard/internal/realtime"
)

// NewRouter registers HTTP routes and returns the handler with middleware
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", app.webhookHandler)
	mux.HandleFunc("/purchases-count", app.purchasesCountHandler)
	mux.HandleFunc("/leaderboard", app.leaderboardHandler)
	mux.HandleFunc("/deliveries", app.deliveriesHandler)
	mux.HandleFunc("/healthz", app.healthHandler)
	mux.HandleFunc("/debug/metrics", app.metricsHandler)

	if app.Broadcaster != nil {
		mux.Handle("/events", realtime.NewSSEHandler(app.Broadcaster, app.KeepAlive))
		mux.Handle("/ws", realtime.NewWSHandler(app.Broadcaster, app.KeepAlive))
	}

	if app.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(app.StaticDir)))
	}

	return WithRequestID(WithLogging(mux))
}
