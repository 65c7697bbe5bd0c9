package stt

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs every recognition request with structured logging.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewLoggingTransport wraps next so that each round trip is logged at debug
// level. A nil next uses http.DefaultTransport.
func NewLoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingTransport{next: next, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("path", req.URL.Path),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		t.logger.Debug("stt request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}

	t.logger.Debug("stt request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}
