package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandbridge/portal/internal/config"
	"github.com/brandbridge/portal/internal/logging"
)

func TestNewInDevelopmentServesHealth(t *testing.T) {
	cfg := config.Config{
		AppName:         "BrandBridge",
		AppEnv:          "development",
		Port:            "0",
		JWTSecret:       "secret",
		JWTIssuer:       "brandbridge",
		TokenTTL:        time.Hour,
		SessionCookie:   "bb_session",
		SignOutOrigin:   "https://brandbridge.example",
		StreamHeartbeat: time.Second,
	}
	srv, err := New(cfg, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewOutsideDevelopmentNeedsBackends(t *testing.T) {
	if _, err := New(config.Config{AppEnv: "production"}, nil, nil, logging.Discard()); err == nil {
		t.Fatalf("expected error without database and redis")
	}
}
