package resource

import "go.uber.org/atomic"

// Store is the external, mutable local resource collection the agent
// observes. Its constructors and resource model are out of scope for this
// module (spec.md §1) — the agent only needs a Grain to drain and a
// downgrade hook to apply before registering a resource with a registry
// that speaks an older API version.
type Store interface {
	// Grain returns the agent's change-event grain. The store is
	// responsible for pushing every Added/Modified/Removed event onto it;
	// Sync events are pushed only when the agent calls Sync.
	Grain() *Grain

	// Sync pushes a Sync event onto the grain for every resource currently
	// held, so the registry can be brought to a consistent state (spec.md
	// §3 "sync is emitted once at registration start for every resource
	// present"). Called once every time the agent (re-)enters
	// INITIAL_REGISTRATION, including after a heartbeat 404.
	Sync()

	// Downgrade applies the API-version downgrade hook supplied by the
	// store side (spec.md §4.3 "Downgrade hook") and returns the payload to
	// send to a registry exposing registryVersion.
	Downgrade(t Type, data map[string]any, registryVersion string) map[string]any
}

// VersionCounters holds one non-negative, monotonically non-decreasing
// counter per resource type (spec.md §3 "api_resource_versions"), used only
// in peer-to-peer mode to populate the ver_* mDNS TXT records.
type VersionCounters struct {
	counters map[Type]*atomic.Uint64
}

// NewVersionCounters returns a zeroed set of counters, one per resource type.
func NewVersionCounters() *VersionCounters {
	vc := &VersionCounters{counters: make(map[Type]*atomic.Uint64, len(Types))}
	for _, t := range Types {
		vc.counters[t] = atomic.NewUint64(0)
	}
	return vc
}

// Increment bumps the counter for t and returns its new value.
func (vc *VersionCounters) Increment(t Type) uint64 { return vc.counters[t].Inc() }

// Snapshot returns the current value of every counter, keyed by type.
func (vc *VersionCounters) Snapshot() map[Type]uint64 {
	out := make(map[Type]uint64, len(vc.counters))
	for t, c := range vc.counters {
		out[t] = c.Load()
	}
	return out
}
