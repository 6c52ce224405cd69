// Package registration translates resource change events into
// POST/DELETE requests against a Registration API, and classifies the
// HTTP results into the recovery actions spec.md §4.3/§7 describe.
package registration

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

// ServiceError is a 5xx or transport-level failure (spec.md §4.3, §7):
// the state machine must pop the current registry.
type ServiceError struct {
	Op     string
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration %s service error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("registration %s error: status %d", e.Op, e.Status)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Response is the minimal shape of an HTTP response this package needs —
// decoupled from net/http so the Transport interface stays at the level
// spec.md §1 specifies (an abstract interface the HTTP client adapter
// implements).
type Response struct {
	Status int
	Body   []byte
}

// Transport is the external HTTP client (spec.md §1, §6). Concrete
// implementation: internal/httptransport.
type Transport interface {
	Post(ctx context.Context, path string, body []byte) (Response, error)
	Delete(ctx context.Context, path string) (Response, error)
}

// Config configures a Client against a single registry base (spec.md §4.3
// "Base path: /x-nmos/registration/<version>").
type Config struct {
	Transport       Transport
	RegistryVersion string
	Store           resource.Store
	Logger          *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Transport == nil {
		cfg.Transport = def.Transport
	}
	if cfg.RegistryVersion == "" {
		cfg.RegistryVersion = def.RegistryVersion
	}
	if cfg.Store == nil {
		cfg.Store = def.Store
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func DefaultConfig() Config { return Config{Logger: zap.NewNop()} }

// Client issues one HTTP request per drained resource event, per spec.md
// §4.3. Grounded verbatim on node_behaviour.cpp's request_registration.
type Client struct {
	Config
}

// New constructs a Client.
func New(cfg Config) *Client { return &Client{Config: cfg.Merge(DefaultConfig())} }

// Register handles a single event: POST for added/sync/modified, DELETE
// for removed, including the 200-on-create delete-then-retry dance
// (spec.md §4.3 "200-on-create semantics"). Returns a *ServiceError if the
// state machine must pop the current registry; any other non-nil error is
// unexpected and should be treated the same way a *ServiceError is (it
// means the registry connection itself is unusable).
func (c *Client) Register(ctx context.Context, ev resource.Event) error {
	switch ev.Kind {
	case resource.KindAdded, resource.KindSync:
		return c.create(ctx, ev)
	case resource.KindModified:
		return c.update(ctx, ev)
	case resource.KindRemoved:
		return c.delete(ctx, ev)
	default:
		return errors.Newf("registration: unknown event kind %q", ev.Kind)
	}
}

func (c *Client) create(ctx context.Context, ev resource.Event) error {
	c.Logger.Info("requesting registration creation", zap.String("type", string(ev.Path.Type)), zap.String("id", ev.Path.ID))

	body := c.body(ev)
	resp, err := c.Transport.Post(ctx, "/resource", body)
	if err != nil {
		return &ServiceError{Op: "creation", Err: err}
	}

	switch {
	case resp.Status == 201:
		c.Logger.Debug("registration created", zap.String("id", ev.Path.ID))
		return nil
	case resp.Status == 200:
		// The registry already holds a (stale) copy: delete then retry the
		// POST exactly once. Whatever the retry's status, the event is
		// consumed (spec.md §4.3).
		c.Logger.Warn("registration out of sync, deleting and re-requesting", zap.String("id", ev.Path.ID))
		if _, err := c.Transport.Delete(ctx, "/resource/"+ev.Path.String()); err != nil {
			return &ServiceError{Op: "deletion", Err: err}
		}
		retry, err := c.Transport.Post(ctx, "/resource", body)
		if err != nil {
			return &ServiceError{Op: "creation", Err: err}
		}
		if retry.Status == 201 {
			c.Logger.Debug("registration created", zap.String("id", ev.Path.ID))
		} else {
			c.Logger.Error("registration retry unexpected status", zap.String("op", "creation"), zap.Int("status", retry.Status))
		}
		return nil
	default:
		return c.classify("creation", resp)
	}
}

func (c *Client) update(ctx context.Context, ev resource.Event) error {
	c.Logger.Info("requesting registration update", zap.String("type", string(ev.Path.Type)), zap.String("id", ev.Path.ID))

	resp, err := c.Transport.Post(ctx, "/resource", c.body(ev))
	if err != nil {
		return &ServiceError{Op: "update", Err: err}
	}
	if resp.Status == 200 {
		c.Logger.Debug("registration updated", zap.String("id", ev.Path.ID))
		return nil
	}
	return c.classify("update", resp)
}

func (c *Client) delete(ctx context.Context, ev resource.Event) error {
	c.Logger.Info("requesting registration deletion", zap.String("type", string(ev.Path.Type)), zap.String("id", ev.Path.ID))

	resp, err := c.Transport.Delete(ctx, "/resource/"+ev.Path.String())
	if err != nil {
		return &ServiceError{Op: "deletion", Err: err}
	}
	if resp.Status == 204 {
		c.Logger.Debug("registration deleted", zap.String("id", ev.Path.ID))
		return nil
	}
	return c.classify("deletion", resp)
}

// classify implements handle_registration_error_conditions: 5xx becomes a
// *ServiceError the caller must act on; 4xx and any other unexpected status
// is logged and swallowed (the event is consumed either way).
func (c *Client) classify(op string, resp Response) error {
	switch {
	case resp.Status >= 500:
		c.Logger.Error("registration service error", zap.String("op", op), zap.Int("status", resp.Status))
		return &ServiceError{Op: op, Status: resp.Status}
	case resp.Status >= 400:
		// 4xx may indicate a validation failure or that the registry
		// garbage-collected a super-resource; indistinguishable, so both
		// are consumed without a state change (spec.md §4.3, §7).
		c.Logger.Error("registration client error", zap.String("op", op), zap.Int("status", resp.Status))
		return nil
	default:
		// Unexpected non-error status (e.g. an unforeseen 2xx) — logged,
		// consumed, per spec.md §9 Open Question 1.
		c.Logger.Error("registration unexpected status", zap.String("op", op), zap.Int("status", resp.Status))
		return nil
	}
}

func (c *Client) body(ev resource.Event) []byte {
	data := ev.Data()
	if c.Store != nil {
		data = c.Store.Downgrade(ev.Path.Type, data, c.RegistryVersion)
	}
	return marshalResource(ev.Path.Type, data)
}
