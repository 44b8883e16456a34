// Package health probes backend dependencies and publishes the result over
// gRPC health checking, Prometheus, and the HTTP health endpoint.
package health

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/metrics"
)

// Pinger is implemented by components that can verify their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusFunc is called whenever the cached health flips.
type StatusFunc func(healthy bool)

// StoreChecker monitors store health via periodic pings.
type StoreChecker struct {
	store        Pinger
	probeTimeout time.Duration
	metrics      *metrics.Metrics
	healthy      atomic.Bool

	mu        sync.Mutex
	listeners []StatusFunc
	lastErr   error
}

// NewStoreChecker creates a checker that starts unhealthy until the first
// successful probe.
func NewStoreChecker(store Pinger, probeTimeout time.Duration, m *metrics.Metrics) *StoreChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &StoreChecker{store: store, probeTimeout: probeTimeout, metrics: m}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string { return "database" }

// IsHealthy returns the cached health status.
func (c *StoreChecker) IsHealthy() bool { return c.healthy.Load() }

// LastError returns the error of the most recent failed probe, if any.
func (c *StoreChecker) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// OnChange registers fn to run on every health transition.
func (c *StoreChecker) OnChange(fn StatusFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Check runs one probe and updates the cached status.
func (c *StoreChecker) Check(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	err := c.store.Ping(probeCtx)
	healthy := err == nil
	prev := c.healthy.Swap(healthy)
	c.metrics.SetStoreUp(healthy)

	c.mu.Lock()
	c.lastErr = err
	listeners := append([]StatusFunc(nil), c.listeners...)
	c.mu.Unlock()

	if err != nil {
		slog.Error("Store health check failed", "checker", c.Name(), "error", err)
	}
	if prev != healthy {
		if healthy {
			slog.Info("Store health: UP")
		} else {
			slog.Warn("Store health: DOWN")
		}
		for _, fn := range listeners {
			fn(healthy)
		}
	}
	return err
}

// Start runs a probe immediately, then every interval, until ctx is done.
func (c *StoreChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("Health worker started", "interval", interval, "timeout", c.probeTimeout)

	_ = c.Check(ctx)
	for {
		select {
		case <-ticker.C:
			_ = c.Check(ctx)
		case <-ctx.Done():
			slog.Info("Health worker shutting down", "reason", ctx.Err())
			return
		}
	}
}
