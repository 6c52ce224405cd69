package mock

import (
	"context"
	"sync"

	"github.com/amwa-nmos/node-agent/internal/heartbeat"
	"github.com/amwa-nmos/node-agent/internal/registration"
)

// Request records a single call made against a Registry, for assertions
// on the order and shape of what the agent sent.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Registry is a fake Registration API: it answers POST/DELETE/heartbeat
// calls according to a scripted sequence of statuses, recording every
// request it receives. A Registry from NewRegistry answers every request
// with 201 (or 204/200 as appropriate) until told otherwise; a method whose
// status list is empty (as in the zero value) is answered with 500.
type Registry struct {
	mu sync.Mutex

	Requests []Request

	// PostStatuses/DeleteStatuses/HeartbeatStatuses are consumed in order;
	// once exhausted, the last entry repeats.
	PostStatuses      []int
	DeleteStatuses    []int
	HeartbeatStatuses []int
}

// NewRegistry returns a Registry that accepts everything.
func NewRegistry() *Registry {
	return &Registry{
		PostStatuses:      []int{201},
		DeleteStatuses:    []int{204},
		HeartbeatStatuses: []int{200},
	}
}

func (r *Registry) Post(ctx context.Context, path string, body []byte) (registration.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, Request{Method: "POST", Path: path, Body: body})
	return registration.Response{Status: next(&r.PostStatuses)}, nil
}

func (r *Registry) Delete(ctx context.Context, path string) (registration.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, Request{Method: "DELETE", Path: path})
	return registration.Response{Status: next(&r.DeleteStatuses)}, nil
}

func (r *Registry) Beat(ctx context.Context, selfID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, Request{Method: "HEARTBEAT", Path: selfID})
	return next(&r.HeartbeatStatuses), nil
}

// RequestCount returns the number of requests observed so far.
func (r *Registry) RequestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Requests)
}

// History returns a snapshot of every request observed so far.
func (r *Registry) History() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.Requests))
	copy(out, r.Requests)
	return out
}

func next(statuses *[]int) int {
	s := *statuses
	if len(s) == 0 {
		return 500
	}
	status := s[0]
	if len(s) > 1 {
		*statuses = s[1:]
	}
	return status
}

// Transports maps registry URIs to fake Registry instances, implementing
// fsm.Transports. Each URI gets exactly one Registry, created on first use.
type Transports struct {
	mu         sync.Mutex
	registries map[string]*Registry
}

// NewTransports returns an empty set of fake transports.
func NewTransports() *Transports {
	return &Transports{registries: make(map[string]*Registry)}
}

// Registry returns (creating if necessary) the fake Registry for uri, so
// tests can script its behaviour before the agent reaches it.
func (t *Transports) Registry(uri string) *Registry {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.registries[uri]
	if !ok {
		r = NewRegistry()
		t.registries[uri] = r
	}
	return r
}

func (t *Transports) Registration(uri string) registration.Transport { return t.Registry(uri) }
func (t *Transports) Heartbeat(uri string) heartbeat.Transport       { return t.Registry(uri) }
