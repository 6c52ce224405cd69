package resource

import (
	"sync"

	"go.uber.org/atomic"
)

// Grain is an append-only ordered sequence of resource events plus a
// monotonically increasing Updated watermark, per spec.md §3.
//
// It plays the role the original node_behaviour_grain_guard played in the
// C++ source: events are stolen from the grain for processing, and whatever
// is left unprocessed when the caller is done is restored ahead of anything
// that arrived in the meantime, so no event is lost and FIFO order survives
// a partial drain (spec.md §4.5, §5).
type Grain struct {
	mu      sync.Mutex
	events  []Event
	updated atomic.Uint64
	wake    chan struct{}
}

// NewGrain returns an empty grain.
func NewGrain() *Grain { return &Grain{wake: make(chan struct{}, 1)} }

// Wake returns the channel a drain loop should select on to learn that the
// watermark has advanced, replacing the original's condition variable
// signal (spec.md §5, §9) with a channel notification. A receive from Wake
// only means "check Updated() again" — it carries no payload and may fire
// spuriously relative to any one observer.
func (g *Grain) Wake() <-chan struct{} { return g.wake }

// Push appends an event to the grain and bumps the watermark. Called by the
// Resource Store whenever it observes a change.
func (g *Grain) Push(e Event) {
	g.mu.Lock()
	g.events = append(g.events, e)
	g.mu.Unlock()
	g.updated.Inc()
	g.notify()
}

func (g *Grain) notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Updated returns the current watermark. Safe to call without holding any
// lock; used by callers deciding whether to wake up and drain.
func (g *Grain) Updated() uint64 { return g.updated.Load() }

// Drain atomically swaps out the buffered events for an empty buffer and
// returns what was swapped out, along with the watermark at swap time.
func (g *Grain) Drain() ([]Event, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	events := g.events
	g.events = nil
	return events, g.updated.Load()
}

// Restore prepends remaining (events the caller did not finish processing)
// to whatever was pushed onto the grain since Drain was called, preserving
// producer FIFO order, and bumps the watermark once more so that any waiter
// blocked on Updated() wakes up again.
func (g *Grain) Restore(remaining []Event) {
	if len(remaining) == 0 {
		return
	}
	g.mu.Lock()
	g.events = append(remaining, g.events...)
	g.mu.Unlock()
	g.updated.Inc()
	g.notify()
}
