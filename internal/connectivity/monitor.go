// Package connectivity maintains a best-effort view of network health and
// the shared failure counter used to declare offline mode.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Class is a coarse connection quality bucket derived from measured latency.
type Class string

// Connection quality classes.
const (
	ClassExcellent Class = "excellent"
	ClassGood      Class = "good"
	ClassFair      Class = "fair"
	ClassPoor      Class = "poor"
	ClassOffline   Class = "offline"
)

// offlineFallbackLatencyMs is the conservative latency recorded when a probe
// fails outright.
const offlineFallbackLatencyMs = 9999

// Status is a snapshot of the monitor's view of network health.
type Status struct {
	IsOnline            bool
	LastChecked         time.Time
	LatencyMs           int64
	Class               Class
	ConsecutiveFailures int
}

// Prober performs a single lightweight latency measurement.
type Prober interface {
	Probe(ctx context.Context) (time.Duration, error)
}

// HTTPProber measures latency with an HTTP HEAD round-trip to a fixed URL.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober against the given URL with the given
// per-probe timeout.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Probe issues a HEAD request and returns the elapsed round-trip time.
func (p *HTTPProber) Probe(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build probe request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	return time.Since(start), nil
}

// Monitor owns the ConnectionStatus. Both the periodic probe and the dispatch
// pipeline mutate it, so every update goes through a read-modify-write
// section under the mutex; concurrent writers never clobber unrelated fields.
type Monitor struct {
	mu               sync.Mutex
	status           Status
	prober           Prober
	failureThreshold int
	logger           *slog.Logger
	now              func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the monitor's clock for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// NewMonitor creates a Monitor. failureThreshold is the consecutive-failure
// count above which offline mode is declared even while nominally online.
func NewMonitor(prober Prober, failureThreshold int, logger *slog.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		prober:           prober,
		failureThreshold: failureThreshold,
		logger:           logger.With("component", "connectivity_monitor"),
		now:              time.Now,
		status: Status{
			IsOnline: true,
			Class:    ClassGood,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh is the periodic probe. It produces a fresh status snapshot from the
// measurement with the consecutive-failure count carried over unchanged.
func (m *Monitor) Refresh(ctx context.Context) Status {
	latency, err := m.prober.Probe(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "periodic probe failed", "error", err)
		m.status = Status{
			IsOnline:            false,
			LastChecked:         m.now(),
			LatencyMs:           offlineFallbackLatencyMs,
			Class:               ClassOffline,
			ConsecutiveFailures: m.status.ConsecutiveFailures,
		}
		return m.status
	}

	m.status = Status{
		IsOnline:            true,
		LastChecked:         m.now(),
		LatencyMs:           latency.Milliseconds(),
		Class:               classify(latency),
		ConsecutiveFailures: m.status.ConsecutiveFailures,
	}
	m.logger.DebugContext(ctx, "periodic probe completed",
		"latency_ms", m.status.LatencyMs, "class", m.status.Class)
	return m.status
}

// CheckNow is the on-demand check invoked synchronously before every
// dispatch. On measurement failure it falls back to a conservative offline,
// high-latency snapshot and increments the consecutive-failure count.
func (m *Monitor) CheckNow(ctx context.Context) Status {
	latency, err := m.prober.Probe(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "on-demand probe failed", "error", err,
			"consecutive_failures", m.status.ConsecutiveFailures+1)
		m.status = Status{
			IsOnline:            false,
			LastChecked:         m.now(),
			LatencyMs:           offlineFallbackLatencyMs,
			Class:               ClassOffline,
			ConsecutiveFailures: m.status.ConsecutiveFailures + 1,
		}
		return m.status
	}

	m.status = Status{
		IsOnline:            true,
		LastChecked:         m.now(),
		LatencyMs:           latency.Milliseconds(),
		Class:               classify(latency),
		ConsecutiveFailures: m.status.ConsecutiveFailures,
	}
	return m.status
}

// RecordProviderFailure increments the shared failure counter on a
// provider-level failure. Connectivity and provider failures share one
// counter by design.
func (m *Monitor) RecordProviderFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.ConsecutiveFailures++
	m.logger.Debug("provider failure recorded", "consecutive_failures", m.status.ConsecutiveFailures)
}

// RecordProviderSuccess resets the shared failure counter. This is the only
// path that resets it to zero.
func (m *Monitor) RecordProviderSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.ConsecutiveFailures != 0 {
		m.logger.Debug("failure counter reset after provider success")
	}
	m.status.ConsecutiveFailures = 0
}

// OfflineMode reports whether the degraded operating mode is declared:
// offline iff the monitor sees the network down or the consecutive-failure
// count has exceeded the threshold.
func (m *Monitor) OfflineMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.status.IsOnline || m.status.ConsecutiveFailures > m.failureThreshold
}

// Status returns a copy of the current snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func classify(latency time.Duration) Class {
	switch {
	case latency < 100*time.Millisecond:
		return ClassExcellent
	case latency < 300*time.Millisecond:
		return ClassGood
	case latency < 800*time.Millisecond:
		return ClassFair
	default:
		return ClassPoor
	}
}
