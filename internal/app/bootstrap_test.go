package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salesboard/internal/infra"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("SALESBOARD_CONFIG", "")
	if got := ConfigPath(); got != infra.DefaultConfigPath {
		t.Errorf("expected default path, got %s", got)
	}

	t.Setenv("SALESBOARD_CONFIG", "/etc/salesboard.yaml")
	if got := ConfigPath(); got != "/etc/salesboard.yaml" {
		t.Errorf("expected env path, got %s", got)
	}
}

func TestWire(t *testing.T) {
	b := NewBootstrap()
	b.Config = infra.DefaultConfig()
	b.Config.App.StaticDir = t.TempDir()
	os.WriteFile(filepath.Join(b.Config.App.StaticDir, "index.html"), []byte("<h1>board</h1>"), 0644)

	if err := b.wire(nil); err != nil {
		t.Fatalf("wire failed: %v", err)
	}

	cases := map[string]int{
		"/healthz":         http.StatusOK,
		"/leaderboard":     http.StatusOK,
		"/debug/metrics":   http.StatusOK,
		"/deliveries":      http.StatusNotFound,
		"/":                http.StatusOK,
		"/purchases-count": http.StatusInternalServerError, // no storefront credentials
	}
	for path, want := range cases {
		rr := httptest.NewRecorder()
		b.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rr.Code)
		}
	}

	// Storefront is the fallback; without a secret every webhook is rejected
	rr := httptest.NewRecorder()
	b.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without secret, got %d", rr.Code)
	}
}

func TestShutdownEndsStreams(t *testing.T) {
	b := NewBootstrap()
	b.Config = infra.DefaultConfig()
	b.Config.App.StaticDir = ""
	if err := b.wire(nil); err != nil {
		t.Fatalf("wire failed: %v", err)
	}

	srv := httptest.NewUnstartedServer(b.Handler)
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events failed: %v", err)
	}
	defer resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Shutdown(ctx, srv.Config); err != nil {
		t.Fatalf("Shutdown should not be held open by streams: %v", err)
	}
}
