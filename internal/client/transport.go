package client

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"basic-agent-service/internal/config"
	"basic-agent-service/internal/metrics"
)

// InstrumentedTransport wraps http.RoundTripper to log and count vendor requests.
// Headers are never logged since they carry API keys.
type InstrumentedTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper
func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		metrics.VendorHTTPRequests.WithLabelValues(req.URL.Host, "error").Inc()
		logger.Warn("vendor request failed",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	metrics.VendorHTTPRequests.WithLabelValues(req.URL.Host, strconv.Itoa(resp.StatusCode)).Inc()
	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelWarn
	}
	logger.Log(req.Context(), level, "vendor request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", elapsed,
	)
	return resp, nil
}

// NewHTTPClient creates the http.Client shared by vendor SDKs.
// Deadlines come from the request context, so no client level timeout is set.
func NewHTTPClient(logger *slog.Logger) *http.Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Client{
		Transport: &InstrumentedTransport{
			Base:   http.DefaultTransport,
			Logger: logger.With("component", config.ComponentHTTPTransport),
		},
	}
}
