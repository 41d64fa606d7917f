package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/eas/pkg/idx"
)

// RequestIDHeader carries the per-request identifier to the server.
const RequestIDHeader = "X-Request-ID"

// Transport logs outbound requests and stamps each one with a request ID.
// A nil Base uses http.DefaultTransport; a nil Logger falls back to the
// logger attached to the request context.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Generate a request ID if the caller did not set one
	reqID := r.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, reqID)
	}

	logger := t.Logger
	if logger == nil {
		logger = FromContext(r.Context())
	}
	logger = logger.With(
		"req_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
	)

	resp, err := base.RoundTrip(r)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.Debug("http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
