package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for governor decisions.
var (
	throttlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_provider_throttles_total",
		Help: "Total number of provider calls pre-empted by the client-side governor",
	})

	outboundCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_provider_outbound_calls_total",
		Help: "Total number of real provider calls issued",
	})
)

// Governor gates outbound provider calls with a sliding one-minute window.
// One instance is shared process-wide; tests construct isolated instances.
type Governor struct {
	mu           sync.Mutex
	max          int
	win          window
	lastWarnedAt time.Time
	logger       zerolog.Logger
	now          func() time.Time
}

// NewGovernor creates a governor with the given per-window ceiling.
// A non-positive max falls back to DefaultMaxPerWindow.
func NewGovernor(max int, logger zerolog.Logger) *Governor {
	if max <= 0 {
		max = DefaultMaxPerWindow
	}
	return &Governor{
		max:    max,
		logger: logger,
		now:    time.Now,
	}
}

// Acquire reserves one slot in the current window, reporting whether a real
// outbound call may proceed. Check and reservation are atomic, so concurrent
// callers can never overshoot the ceiling. Call it only when a call would
// actually be issued, never on cache hits; a false result is to be treated
// exactly like a provider-side rate-limit rejection.
//
// The window is reset before evaluation if it has expired, so a saturated
// window never outlives its 60 seconds.
func (g *Governor) Acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.win.startedAt.IsZero() || g.win.expired(now) {
		g.win.reset(now)
	}

	if g.win.requestCount < g.max {
		g.win.requestCount++
		outboundCallsTotal.Inc()
		return true
	}

	throttlesTotal.Inc()

	// Log flood suppression: at most one warning per interval.
	if now.Sub(g.lastWarnedAt) > throttleWarnInterval {
		g.lastWarnedAt = now
		g.logger.Warn().
			Int("request_count", g.win.requestCount).
			Int("max", g.max).
			Time("window_start", g.win.startedAt).
			Msg("Provider call throttled by governor")
	}

	return false
}

// Snapshot returns the current window state for diagnostics.
func (g *Governor) Snapshot() (requestCount int, windowStart time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.win.requestCount, g.win.startedAt
}
