// Package model defines the transient per-request values of the proxy.
package model

import (
	"context"
	"net/http"
	"net/url"
)

// ForwardRequest is an inbound call to be re-issued against the upstream.
type ForwardRequest struct {
	Ctx    context.Context
	Method string
	// Path is used verbatim as the upstream path suffix.
	Path  string
	Query url.Values
	// Body is the encoded JSON request body; nil for GET.
	Body []byte
}

// UpstreamResponse is a fully read upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the declared media type, or "" when the header is
// absent or empty.
func (r *UpstreamResponse) ContentType() string {
	return r.Header.Get("Content-Type")
}
