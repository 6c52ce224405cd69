// Package discovery resolves a priority-ordered list of Registration API
// URIs, by mDNS browse and/or a configured fallback (spec.md §4.2).
package discovery

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/config"
)

// ErrNoRegistries is returned by nothing in this package directly, and no
// other package of this module uses it: Discover reports "no registries
// discovered" as an empty List with a nil error.
var ErrNoRegistries = errors.New("no registration services discovered")

// Registry is a single discovered or configured Registration API, per
// spec.md §3 "Registry descriptor".
type Registry struct {
	Priority uint
	URI      string
}

// Browser is the external mDNS browse transport (spec.md §1, §6): it
// resolves the current set of advertised "_nmos-registration._tcp"
// instances. Concrete implementation: internal/mdnstransport.
type Browser interface {
	Browse(ctx context.Context) ([]Registry, error)
}

// Config configures discovery. Follows the teacher's Config/Merge/
// DefaultConfig idiom (internal/cluster/gossip/config.go).
type Config struct {
	Browser  Browser
	Fallback *Registry
	Logger   *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Browser == nil {
		cfg.Browser = def.Browser
	}
	if cfg.Fallback == nil {
		cfg.Fallback = def.Fallback
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func DefaultConfig() Config { return Config{Logger: zap.NewNop()} }

// Discover implements spec.md §4.2: browse for "nmos-registration"
// services; if none are found and a fallback registry is configured,
// insert it at config.NoPriority. Grounded on node_behaviour.cpp's
// discover_registration_services.
func Discover(ctx context.Context, cfg Config) (*List, error) {
	cfg = cfg.Merge(DefaultConfig())
	cfg.Logger.Info("attempting discovery of a registration API")

	found, err := cfg.Browser.Browse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovery: browse failed")
	}

	l := NewList()
	for _, r := range found {
		l.Insert(r)
	}

	if l.Empty() {
		cfg.Logger.Warn("did not discover a suitable registration API via dns-sd")
		if cfg.Fallback != nil {
			fallback := *cfg.Fallback
			fallback.Priority = config.NoPriority
			l.Insert(fallback)
		}
	} else {
		cfg.Logger.Info("discovered registration apis", zap.Int("count", l.Len()))
	}

	return l, nil
}
