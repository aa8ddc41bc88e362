package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"slurm-agent-proxy/internal/config"
)

// Version is the build version, injected by fx.
type Version string

// statusReport describes where the proxy forwards to and how.
type statusReport struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	UpstreamURL    string `json:"upstream_url"`
	VerifyTLS      bool   `json:"verify_tls"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// HealthHandler answers the proxy's own /-/ endpoints.
type HealthHandler struct {
	report statusReport
}

// NewHealthHandler snapshots the forwarding settings from cfg.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{report: statusReport{
		Status:         "ok",
		Version:        string(v),
		UpstreamURL:    cfg.Upstream.BaseURL,
		VerifyTLS:      cfg.Upstream.VerifyTLS,
		TimeoutSeconds: cfg.Upstream.TimeoutSeconds,
	}}
}

// Healthz reports liveness without touching the upstream.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the upstream the proxy forwards to. A timeout of 0 means
// upstream calls are unbounded.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.report)
}
