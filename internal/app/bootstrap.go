package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"salesboard/internal/api"
	"salesboard/internal/domain"
	"salesboard/internal/infra"
	"salesboard/internal/infra/auth"
	"salesboard/internal/infra/paypal"
	"salesboard/internal/infra/storage"
	"salesboard/internal/infra/storefront"
	"salesboard/internal/realtime"
	"salesboard/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Metrics     *infra.Metrics
	Journal     *storage.Journal
	Board       *service.Leaderboard
	Broadcaster *realtime.Broadcaster
	Handler     http.Handler
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// ConfigPath returns SALESBOARD_CONFIG or the default location
func ConfigPath() string {
	if p := os.Getenv("SALESBOARD_CONFIG"); p != "" {
		return p
	}
	return infra.DefaultConfigPath
}

// Initialize loads configuration and wires every component into an HTTP handler
func (b *Bootstrap) Initialize() error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(ConfigPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping salesboard...", slog.Int("port", cfg.App.Port))

	// 3. Delivery journal (optional)
	var journal domain.DeliveryJournal
	if cfg.Journal.Enabled {
		j, err := storage.NewJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		b.Journal = j
		journal = j
		slog.Info("✅ Delivery journal initialized", slog.String("path", cfg.Journal.Path))
	}

	return b.wire(journal)
}

// wire builds providers, services and the router from b.Config
func (b *Bootstrap) wire(journal domain.DeliveryJournal) error {
	cfg := b.Config
	b.Metrics = infra.NewMetrics()

	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTP.ClientTimeoutSec) * time.Second}

	// Provider A: shared-secret webhooks, JWT-bearer tokens for the purchases API
	sfTokens := auth.NewTokenCache(storefront.NewTokenExchanger(
		cfg.Storefront.ClientID, cfg.Storefront.APIKey, cfg.Storefront.TokenURL, httpClient))
	sfTokens.OnRefresh(b.Metrics.RecordTokenRefresh)
	sfClient := storefront.NewClient(cfg.Storefront.APIURL, sfTokens, httpClient)

	// Provider B: client-credentials tokens, remote signature verification
	ppBase := cfg.PayPalBaseURL()
	ppTokens := auth.NewTokenCache(paypal.NewTokenExchanger(
		cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, ppBase, httpClient))
	ppTokens.OnRefresh(b.Metrics.RecordTokenRefresh)

	logMissing(cfg)

	// PayPal matches on its five headers; storefront is the catch-all and goes last
	chain := service.NewVerifierChain(
		paypal.NewVerifier(ppBase, cfg.PayPal.WebhookID, ppTokens, httpClient),
		storefront.NewVerifier(cfg.Storefront.WebhookSecret, cfg.Storefront.SignatureHeader),
	)

	b.Board = service.NewLeaderboard()
	b.Broadcaster = realtime.NewBroadcaster(b.Metrics)

	app := api.NewApp(api.App{
		Verifier:    chain,
		Processor:   service.NewProcessor(b.Board, b.Broadcaster),
		Board:       b.Board,
		Purchases:   sfClient,
		Journal:     journal,
		Broadcaster: b.Broadcaster,
		Metrics:     b.Metrics,
		StaticDir:   cfg.App.StaticDir,
		KeepAlive:   time.Duration(cfg.HTTP.KeepAliveSec) * time.Second,
	})
	b.Handler = api.NewRouter(app)

	slog.Info("✅ Components wired", slog.String("paypal_base", ppBase))
	return nil
}

// logMissing warns about unset credentials; requests that need them fail with ConfigError
func logMissing(cfg *infra.Config) {
	missing := map[string]string{
		"STOREFRONT_WEBHOOK_SECRET": cfg.Storefront.WebhookSecret,
		"STOREFRONT_CLIENT_ID":      cfg.Storefront.ClientID,
		"STOREFRONT_API_KEY":        cfg.Storefront.APIKey,
		"PAYPAL_CLIENT_ID":          cfg.PayPal.ClientID,
		"PAYPAL_CLIENT_SECRET":      cfg.PayPal.ClientSecret,
		"PAYPAL_WEBHOOK_ID":         cfg.PayPal.WebhookID,
	}
	for name, v := range missing {
		if v == "" {
			slog.Warn("Credential not configured", slog.String("env", name))
		}
	}
}

// Shutdown ends live feed streams first so srv.Shutdown is not held open by them,
// then drains in-flight requests and closes the journal.
func (b *Bootstrap) Shutdown(ctx context.Context, srv *http.Server) error {
	if b.Broadcaster != nil {
		b.Broadcaster.Close()
	}

	err := srv.Shutdown(ctx)

	if b.Journal != nil {
		if cerr := b.Journal.Close(); cerr != nil {
			slog.WarnContext(ctx, "Failed to close journal", slog.Any("error", cerr))
		}
	}
	return err
}
