package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"slurm-agent-proxy/internal/service"
)

// ProxyHandler forwards every non-reserved GET and POST to the upstream.
type ProxyHandler struct {
	dispatcher *service.Dispatcher
	logger     *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(d *service.Dispatcher, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		dispatcher: d,
		logger:     logger.With("component", "proxy_handler"),
	}
}

// Get forwards the request path upstream and returns the JSON reply. The
// inbound query string is not forwarded.
func (h *ProxyHandler) Get(c echo.Context) error {
	rep, err := h.dispatcher.Get(upstreamContext(c), upstreamPath(c))
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, rep)
}

// Post forwards the envelope's request_body and query_params upstream and
// renders the reply according to its content type.
func (h *ProxyHandler) Post(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}

	env, err := service.ParseEnvelope(data)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
		})
	}

	rep, err := h.dispatcher.Post(upstreamContext(c), upstreamPath(c), env)
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, rep)
}

// render writes rep with status 200 whatever the upstream status was.
func render(c echo.Context, rep *service.Representation) error {
	switch rep.Kind {
	case service.KindHTML:
		return c.JSON(http.StatusOK, rep.Text)
	case service.KindImage:
		return c.Stream(http.StatusOK, rep.MediaType, rep.Reader())
	default:
		return c.JSONBlob(http.StatusOK, rep.JSON)
	}
}

// fail logs err and answers with an opaque server error. Upstream transport
// and decode failures are not classified for the caller.
func (h *ProxyHandler) fail(c echo.Context, err error) error {
	// Body limit violations surface from the request reader as HTTP errors.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	h.logger.Error("proxy error",
		"err", err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": http.StatusText(http.StatusInternalServerError),
	})
}

// upstreamContext keeps the request's values but not its cancellation: a
// client that hangs up does not abort a call already sent upstream.
func upstreamContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

// upstreamPath is the decoded request path without its leading slash.
func upstreamPath(c echo.Context) string {
	return strings.TrimPrefix(c.Request().URL.Path, "/")
}
