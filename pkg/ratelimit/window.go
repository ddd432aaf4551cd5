// Package ratelimit implements the self-imposed client-side rate limit
// applied before any real provider call. The ceiling sits materially below
// the provider's own quota so that this process never becomes the reason the
// account gets blocked.
package ratelimit

import (
	"time"
)

const (
	// DefaultMaxPerWindow is the conservative per-window call ceiling.
	DefaultMaxPerWindow = 10

	// WindowDuration is the length of one counting window.
	WindowDuration = 60 * time.Second

	// throttleWarnInterval limits how often repeated throttle events are
	// logged, to keep a saturated window from flooding the logs.
	throttleWarnInterval = 10 * time.Second
)

// window tracks outbound-call counts within the current counting window.
// It resets implicitly by time and is never persisted.
type window struct {
	// requestCount is the number of real provider calls issued within the
	// current window. Cache hits never increment it.
	requestCount int

	// startedAt is when the current counting window began.
	startedAt time.Time
}

// expired reports whether the window has outlived its duration.
func (w *window) expired(now time.Time) bool {
	return now.Sub(w.startedAt) > WindowDuration
}

// reset starts a fresh window at now.
func (w *window) reset(now time.Time) {
	w.requestCount = 0
	w.startedAt = now
}
