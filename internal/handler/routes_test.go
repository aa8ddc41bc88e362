package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"slurm-agent-proxy/internal/client"
	"slurm-agent-proxy/internal/config"
	"slurm-agent-proxy/internal/metrics"
	"slurm-agent-proxy/internal/service"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/-/") {
			t.Errorf("reserved path %q reached the upstream", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/-/metrics"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	d, err := service.NewDispatcher(client.NewUpstreamClient(cfg, logger, m), cfg, logger, m)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	proxy := NewProxyHandler(d, logger)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	RegisterRoutes(e, cfg, m, proxy, health)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET /-/healthz", http.MethodGet, "/-/healthz", "", http.StatusOK},
		{"GET /-/status", http.MethodGet, "/-/status", "", http.StatusOK},
		{"GET /-/metrics", http.MethodGet, "/-/metrics", "", http.StatusOK},
		{"GET /", http.MethodGet, "/", "", http.StatusOK},
		{"GET nested path", http.MethodGet, "/api/agent/v4/stats", "", http.StatusOK},
		{"GET /healthz is forwarded", http.MethodGet, "/healthz", "", http.StatusOK},
		{"POST nested path", http.MethodPost, "/api/agent/v4/jobs", `{"request_body":{}}`, http.StatusOK},
		{"POST without envelope", http.MethodPost, "/api/agent/v4/jobs", `{}`, http.StatusUnprocessableEntity},
		{"PUT not allowed", http.MethodPut, "/api/agent/v4/jobs", "", http.StatusMethodNotAllowed},
		{"DELETE not allowed", http.MethodDelete, "/api/agent/v4/jobs", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forwarded":"` + r.URL.Path + `"}`))
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.Metrics = config.MetricsConfig{Enabled: false, Path: "/-/metrics"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := service.NewDispatcher(client.NewUpstreamClient(cfg, logger, nil), cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	e := echo.New()
	RegisterRoutes(e, cfg, nil, NewProxyHandler(d, logger), NewHealthHandler(cfg, "test"))

	req := httptest.NewRequest(http.MethodGet, "/-/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Body.String() != `{"forwarded":"/-/metrics"}` {
		t.Errorf("body = %q, want request forwarded upstream", rec.Body.String())
	}
}
