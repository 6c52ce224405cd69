// Package httptransport is the concrete HTTP client adapter for the
// Registration API transports spec.md §1 leaves abstract
// (registration.Transport, heartbeat.Transport). It implements exactly the
// wire shape spec.md §6 fixes: JSON bodies over plain net/http, base path
// "/x-nmos/registration/<version>".
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/amwa-nmos/node-agent/internal/heartbeat"
	"github.com/amwa-nmos/node-agent/internal/registration"
)

// Config configures a Transports factory, following the teacher's
// Config/Merge/DefaultConfig idiom (internal/cluster/gossip/config.go).
type Config struct {
	// Client is the underlying HTTP client. A nil value gets
	// DefaultConfig's plain client, which sets no timeout of its own;
	// requests are bounded by RequestTimeout.
	Client *http.Client
	// RequestTimeout bounds every individual request (spec.md §4.7: "no
	// outstanding HTTP request is cancelled mid-flight... acceptable
	// because request timeouts bound the wait").
	RequestTimeout time.Duration
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Client == nil {
		cfg.Client = def.Client
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	return cfg
}

func DefaultConfig() Config {
	return Config{
		Client:         &http.Client{},
		RequestTimeout: 10 * time.Second,
	}
}

// Transports builds per-registry registration.Transport and
// heartbeat.Transport values bound to a Registration API base URI,
// implementing fsm.Transports. A new instance is cheap: it holds no
// per-registry state beyond the shared *http.Client.
type Transports struct {
	Config
	Version string
}

// New constructs a Transports factory for registries speaking
// Registration API version (e.g. "v1.3").
func New(version string, cfg Config) *Transports {
	return &Transports{Config: cfg.Merge(DefaultConfig()), Version: version}
}

func (t *Transports) base(registryURI string) string {
	return strings.TrimSuffix(registryURI, "/") + "/x-nmos/registration/" + t.Version
}

// Registration returns a registration.Transport bound to registryURI.
func (t *Transports) Registration(registryURI string) registration.Transport {
	return &client{base: t.base(registryURI), http: t.Client, timeout: t.RequestTimeout}
}

// Heartbeat returns a heartbeat.Transport bound to registryURI.
func (t *Transports) Heartbeat(registryURI string) heartbeat.Transport {
	return &client{base: t.base(registryURI), http: t.Client, timeout: t.RequestTimeout}
}

// client implements both registration.Transport and heartbeat.Transport
// against a single registry base URI.
type client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

func (c *client) Post(ctx context.Context, path string, body []byte) (registration.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *client) Delete(ctx context.Context, path string) (registration.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// Beat issues the heartbeat POST spec.md §4.4/§6 describes:
// "POST /health/nodes/<id>" with no body.
func (c *client) Beat(ctx context.Context, selfID string) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/health/nodes/%s", selfID), nil)
	if err != nil {
		return 0, err
	}
	return resp.Status, nil
}

func (c *client) do(ctx context.Context, method, path string, body []byte) (registration.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return registration.Response{}, errors.Wrap(err, "httptransport: building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection refused, timeout, DNS error — treated identically to
		// a 5xx by every caller (spec.md §7 "Transport failure").
		return registration.Response{}, errors.Wrap(err, "httptransport: request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return registration.Response{}, errors.Wrap(err, "httptransport: reading response body")
	}
	return registration.Response{Status: resp.StatusCode, Body: respBody}, nil
}
