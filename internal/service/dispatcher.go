// Package service implements the forwarding dispatcher: it re-issues inbound
// calls against the upstream and shapes the reply by its declared content type.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"slurm-agent-proxy/internal/client"
	"slurm-agent-proxy/internal/config"
	"slurm-agent-proxy/internal/metrics"
	"slurm-agent-proxy/internal/model"
)

var (
	// ErrDecode is returned when an upstream body that must be JSON is not.
	ErrDecode = errors.New("upstream body is not valid JSON")
	// ErrInvalidBody is returned when an inbound POST body is malformed.
	ErrInvalidBody = errors.New("invalid request body")
)

// emptyObject is the degraded reply for unrecognized or missing content types.
var emptyObject = json.RawMessage(`{}`)

// Representation is the outbound shape of an upstream response.
type Representation struct {
	Kind Kind
	// JSON holds the body for KindJSON and the empty object for the
	// degraded kinds.
	JSON json.RawMessage
	// Text holds the decoded body for KindHTML.
	Text string
	// MediaType and Body are set for KindImage.
	MediaType string
	Body      []byte
}

// Degraded reports whether the upstream reply was replaced by an empty object.
func (r *Representation) Degraded() bool {
	return r.Kind == KindUnrecognized || r.Kind == KindMissing
}

// Reader returns the image body as a stream over the already-read bytes.
func (r *Representation) Reader() io.Reader {
	return bytes.NewReader(r.Body)
}

// Dispatcher forwards requests to the upstream. It holds no per-request state.
type Dispatcher struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL *url.URL
}

// NewDispatcher creates a Dispatcher bound to cfg.Upstream.BaseURL.
// The metrics parameter is optional.
func NewDispatcher(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q must be absolute", cfg.Upstream.BaseURL)
	}

	return &Dispatcher{
		client:  c,
		logger:  logger.With("component", "dispatcher"),
		metrics: m,
		baseURL: u,
	}, nil
}

// Get forwards a GET for path and returns the upstream body as JSON. The
// upstream Content-Type is not consulted.
func (d *Dispatcher) Get(ctx context.Context, path string) (*Representation, error) {
	fr := &model.ForwardRequest{
		Ctx:    ctx,
		Method: http.MethodGet,
		Path:   path,
	}

	resp, err := d.forward(fr)
	if err != nil {
		return nil, err
	}

	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("GET %s: %w", path, ErrDecode)
	}
	return &Representation{Kind: KindJSON, JSON: resp.Body}, nil
}

// Post forwards a POST for path with env's body and query parameters and
// shapes the reply by its Content-Type.
func (d *Dispatcher) Post(ctx context.Context, path string, env *Envelope) (*Representation, error) {
	fr := &model.ForwardRequest{
		Ctx:    ctx,
		Method: http.MethodPost,
		Path:   path,
		Query:  env.Query(),
		Body:   env.RequestBody,
	}

	resp, err := d.forward(fr)
	if err != nil {
		return nil, err
	}

	cls := Classify(resp.ContentType())
	if d.metrics != nil {
		d.metrics.Classifications.WithLabelValues(http.MethodPost, cls.Kind.String()).Inc()
	}

	return d.render(path, cls, resp)
}

// render produces the outbound shape for one classified upstream reply.
func (d *Dispatcher) render(path string, cls Classification, resp *model.UpstreamResponse) (*Representation, error) {
	switch cls.Kind {
	case KindJSON:
		if !json.Valid(resp.Body) {
			return nil, fmt.Errorf("POST %s: %w", path, ErrDecode)
		}
		return &Representation{Kind: KindJSON, JSON: resp.Body}, nil

	case KindHTML:
		return &Representation{Kind: KindHTML, Text: d.decodeText(resp.Body, cls.MediaType)}, nil

	case KindImage:
		return &Representation{Kind: KindImage, MediaType: cls.MediaType, Body: resp.Body}, nil

	case KindUnrecognized:
		d.logger.Error("unhandled content type",
			"content_type", cls.MediaType,
			"path", path,
			"status", resp.StatusCode,
		)
		d.logger.Debug("unhandled upstream body", "path", path, "body", string(resp.Body))
		return &Representation{Kind: cls.Kind, JSON: emptyObject}, nil

	default:
		d.logger.Error("content type not in upstream response headers, something is wrong",
			"path", path,
			"status", resp.StatusCode,
		)
		return &Representation{Kind: KindMissing, JSON: emptyObject}, nil
	}
}

func (d *Dispatcher) forward(fr *model.ForwardRequest) (*model.UpstreamResponse, error) {
	d.logger.Debug("forwarding request",
		"method", fr.Method,
		"path", fr.Path,
	)

	resp, err := d.client.Send(fr.Ctx, d.upstreamURL(fr.Path, fr.Query), fr)
	if err != nil {
		return nil, fmt.Errorf("forward %s %s: %w", fr.Method, fr.Path, err)
	}
	return resp, nil
}

// upstreamURL appends path verbatim to the base URL.
func (d *Dispatcher) upstreamURL(path string, query url.Values) string {
	u := *d.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// decodeText converts body to UTF-8 using the charset declared in
// contentType, falling back to the raw bytes. A body without a declared
// charset that is already valid UTF-8 is returned unchanged; sniffing only
// sees the first 1024 bytes.
func (d *Dispatcher) decodeText(body []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] == "" && utf8.Valid(body) {
		return string(body)
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		d.logger.Debug("charset detection failed", "content_type", contentType, "err", err)
		return string(body)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(text)
}
