package queue

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ReachabilityChecker gates whether the worker loop may attempt delivery.
type ReachabilityChecker interface {
	// IsReachable reports whether the outside world looks reachable.
	// Implementations fail closed: any doubt reads as unreachable.
	IsReachable(ctx context.Context) bool
}

// HTTPGate probes a well-known endpoint with a short timeout. Any network
// error, timeout, or inability to build the request reads as unreachable;
// no error ever propagates to the caller. Any HTTP response at all,
// whatever the status code, counts as reachable.
type HTTPGate struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

// NewHTTPGate creates a gate probing the given URL. A zero timeout
// defaults to 3 seconds.
func NewHTTPGate(url string, timeout time.Duration, logger *slog.Logger) *HTTPGate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPGate{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger.With("component", "connectivity_gate"),
	}
}

// IsReachable performs one probe. The client timeout bounds the whole
// exchange so a hang cannot stall the worker loop past the timeout.
func (g *HTTPGate) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.url, nil)
	if err != nil {
		g.logger.Error("failed to build probe request", "url", g.url, "error", err)
		return false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("connectivity probe failed", "url", g.url, "error", err)
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return true
}
