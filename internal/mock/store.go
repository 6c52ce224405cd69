// Package mock provides in-memory fakes for the agent's external
// collaborators (resource store, HTTP registry, mDNS browser/advertiser),
// grounded on the teacher's own exported mock package
// (aspen's root mock.Network/mock.Builder pattern, reworked here around a
// single fake registry and a single fake resource store instead of a
// simulated gossip cluster) — used by this module's own tests and
// available to downstream integration tests the same way.
package mock

import (
	"sync"

	"github.com/google/uuid"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

// Store is a minimal in-memory resource.Store: it tracks only what's
// needed to drive its Grain and to replay Sync events, since the resource
// model itself is out of scope for the agent (spec.md §1).
type Store struct {
	grain *resource.Grain

	mu   sync.Mutex
	held []resource.Path
}

// NewStore returns an empty Store.
func NewStore() *Store { return &Store{grain: resource.NewGrain()} }

func (s *Store) Grain() *resource.Grain { return s.grain }

// Downgrade is the identity function: this fake has no notion of
// version-specific resource shapes.
func (s *Store) Downgrade(t resource.Type, data map[string]any, registryVersion string) map[string]any {
	return data
}

// Sync pushes one Sync event for every resource currently held (spec.md
// §3), as the agent requires on every (re-)entry to INITIAL_REGISTRATION.
func (s *Store) Sync() {
	s.mu.Lock()
	held := append([]resource.Path(nil), s.held...)
	s.mu.Unlock()

	for _, p := range held {
		s.grain.Push(resource.Event{
			Path: p,
			Kind: resource.KindSync,
			Post: map[string]any{"id": p.ID},
		})
	}
}

// AddNode synthesizes an added event for a newly created node resource
// and returns its generated id, for tests that need to drive the agent
// through its self_id-latching path (spec.md §4.5).
func (s *Store) AddNode() string { return s.Add(resource.TypeNode) }

// Add synthesizes an added event for a resource of type t and returns its
// generated id.
func (s *Store) Add(t resource.Type) string {
	id := uuid.NewString()
	path := resource.Path{Type: t, ID: id}

	s.mu.Lock()
	s.held = append(s.held, path)
	s.mu.Unlock()

	s.grain.Push(resource.Event{Path: path, Kind: resource.KindAdded, Post: map[string]any{"id": id}})
	return id
}

// Remove synthesizes a removed event for the given path.
func (s *Store) Remove(t resource.Type, id string) {
	path := resource.Path{Type: t, ID: id}

	s.mu.Lock()
	for i, p := range s.held {
		if p == path {
			s.held = append(s.held[:i], s.held[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.grain.Push(resource.Event{Path: path, Kind: resource.KindRemoved, Pre: map[string]any{"id": id}})
}
