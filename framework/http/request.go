package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ErrEmptyBody is returned by Bind when the request has no body.
var ErrEmptyBody = errors.New("http: empty request body")

// Request wraps *http.Request with small input helpers. The router makes
// it resolvable as a request-scoped value, so injected handlers can declare
// it like any other dependency:
//
//	container.Ref[gohttp.Request]()
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes a JSON request body into v.
func (req Request) Bind(v any) error {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(req.raw.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(body, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Method returns the HTTP method.
func (req Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req Request) Path() string { return req.raw.URL.Path }
