package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slurm-agent-proxy/internal/config"
	"slurm-agent-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The
// reserved /-/ routes are static, so they win over the catch-all forwarders.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET(config.ReservedPrefix+"healthz", health.Healthz)
	e.GET(config.ReservedPrefix+"status", health.Status)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.GET("/*", proxy.Get)
	e.POST("/*", proxy.Post)
}
