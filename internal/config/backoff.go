package config

import "time"

// ScaledBackoff reproduces the discovery backoff algorithm from spec.md
// §4.1: starting at zero, every failed attempt scales the wait by Factor,
// clamped to [Min, Max]; a success resets it to zero.
//
// The teacher computes an equivalent scaled retry interval for pledge
// attempts via xtime.NewScaledTicker (internal/pledge/pledge.go), a type
// that lives in the unavailable arya-analytics/x module (see DESIGN.md) —
// this is a small stdlib-only reimplementation of the same idea, scoped to
// exactly the clamp(backoff*factor, min, max) spec.md specifies rather than
// the teacher's general-purpose ticker.
type ScaledBackoff struct {
	Min, Max, Factor float64
	current          float64
}

// NewScaledBackoff constructs a backoff starting at zero.
func NewScaledBackoff(min, max, factor float64) *ScaledBackoff {
	return &ScaledBackoff{Min: min, Max: max, Factor: factor}
}

// Duration returns the current wait, zero until the first Fail.
func (b *ScaledBackoff) Duration() time.Duration {
	return time.Duration(b.current * float64(time.Second))
}

// Fail scales the backoff up for the next attempt.
func (b *ScaledBackoff) Fail() {
	next := b.current * b.Factor
	if next < b.Min {
		next = b.Min
	}
	if next > b.Max {
		next = b.Max
	}
	b.current = next
}

// Reset zeroes the backoff after a successful attempt.
func (b *ScaledBackoff) Reset() { b.current = 0 }
