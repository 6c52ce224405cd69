package fsm

import (
	"context"

	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/config"
	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/heartbeat"
	"github.com/amwa-nmos/node-agent/internal/p2p"
	"github.com/amwa-nmos/node-agent/internal/registration"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

// Transports builds registration and heartbeat transports bound to a
// specific registry URI — the agent switches registries at runtime, so
// these cannot be constructed once up front. Concrete implementation:
// internal/httptransport.
type Transports interface {
	Registration(uri string) registration.Transport
	Heartbeat(uri string) heartbeat.Transport
}

// Config wires every external collaborator spec.md §1 lists as out of
// scope for the core: the resource store, the mDNS/HTTP transport
// adapters, and settings. Follows the teacher's Config/Merge/DefaultConfig
// idiom (internal/cluster/gossip/config.go).
type Config struct {
	Store      resource.Store
	Browser    discovery.Browser
	Advertiser p2p.Advertiser
	Transports Transports
	Settings   config.Settings
	Logger     *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Store == nil {
		cfg.Store = def.Store
	}
	if cfg.Browser == nil {
		cfg.Browser = def.Browser
	}
	if cfg.Advertiser == nil {
		cfg.Advertiser = def.Advertiser
	}
	if cfg.Transports == nil {
		cfg.Transports = def.Transports
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func DefaultConfig() Config { return Config{Settings: config.DefaultSettings(), Logger: zap.NewNop()} }

// Agent is the five-state orchestrator of spec.md §4.1, grounded directly
// on node_behaviour.cpp's node_behaviour_thread switch statement.
type Agent struct {
	Config
	registries *discovery.List
	backoff    *config.ScaledBackoff
	selfID     string
}

// New constructs an Agent starting in INITIAL_DISCOVERY (spec.md §3).
func New(cfg Config) *Agent {
	cfg = cfg.Merge(DefaultConfig())
	return &Agent{
		Config: cfg,
		backoff: config.NewScaledBackoff(
			cfg.Settings.DiscoveryBackoffMin,
			cfg.Settings.DiscoveryBackoffMax,
			cfg.Settings.DiscoveryBackoffFactor,
		),
	}
}

// Run drives the state machine until ctx is cancelled (spec.md §4.7
// shutdown) or an unrecoverable error occurs. A context.Canceled or
// context.DeadlineExceeded return means the agent shut down cleanly.
func (a *Agent) Run(ctx context.Context) error {
	mode := ModeInitialDiscovery
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			next Mode
			err  error
		)
		switch mode {
		case ModeInitialDiscovery:
			next, err = a.runInitialDiscovery(ctx)
		case ModeInitialRegistration:
			next, err = a.runInitialRegistration(ctx)
		case ModeRegisteredOperation:
			next, err = a.runRegisteredOperation(ctx)
		case ModeRediscovery:
			next, err = a.runRediscovery(ctx)
		case ModePeerToPeer:
			next, err = a.runPeerToPeer(ctx)
		}
		if err != nil {
			return err
		}

		if next != mode {
			a.Logger.Info("agent mode transition", zap.Stringer("from", mode), zap.Stringer("to", next))
		}
		mode = next
	}
}
