package p2p

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

// Config configures an Operation, following the teacher's Config/Merge
// idiom (internal/cluster/gossip/config.go).
type Config struct {
	Advertiser      Advertiser
	Rediscoverer    Rediscoverer
	RediscoverEvery time.Duration
	Priority        uint
	APIProto        string
	APIVer          string
	Logger          *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Advertiser == nil {
		cfg.Advertiser = def.Advertiser
	}
	if cfg.Rediscoverer == nil {
		cfg.Rediscoverer = def.Rediscoverer
	}
	if cfg.RediscoverEvery == 0 {
		cfg.RediscoverEvery = def.RediscoverEvery
	}
	if cfg.APIProto == "" {
		cfg.APIProto = def.APIProto
	}
	if cfg.APIVer == "" {
		cfg.APIVer = def.APIVer
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func DefaultConfig() Config {
	return Config{RediscoverEvery: 30 * time.Second, APIProto: "http", Logger: zap.NewNop()}
}

// Operation is the peer-to-peer mode body of spec.md §4.6, grounded on
// node_behaviour.cpp's peer_to_peer_operation: publish, fold every drained
// event into the version counters, republish, and exit as soon as the
// background rediscovery task reports a registry.
type Operation struct {
	Config
	versions *resource.VersionCounters
}

// New constructs an Operation with a fresh set of version counters.
func New(cfg Config) *Operation {
	return &Operation{Config: cfg.Merge(DefaultConfig()), versions: resource.NewVersionCounters()}
}

// Run publishes the node's service, drains grain until rediscovery
// succeeds or ctx is cancelled, and withdraws the version records on the
// way out. It returns true if exit was due to rediscovery (the caller
// should move on to INITIAL_REGISTRATION), false on context cancellation
// (shutdown).
func (o *Operation) Run(ctx context.Context, grain *resource.Grain) (rediscovered bool, err error) {
	if err := o.publish(ctx); err != nil {
		return false, err
	}
	defer o.withdraw(ctx)

	rediscover := o.startRediscovery(ctx)

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case found := <-rediscover:
			if found {
				o.Logger.Info("peer-to-peer: registration api rediscovered, leaving p2p mode")
				return true, nil
			}
		case <-grain.Wake():
			o.drain(grain)
		}
	}
}

func (o *Operation) drain(grain *resource.Grain) {
	events, _ := grain.Drain()
	for _, ev := range events {
		v := o.versions.Increment(ev.Path.Type)
		o.Logger.Debug("peer-to-peer: folded event into version counters",
			zap.String("type", string(ev.Path.Type)), zap.Uint64("version", v))
	}
	if len(events) > 0 {
		if err := o.publish(context.Background()); err != nil {
			o.Logger.Error("peer-to-peer: failed to republish after drain", zap.Error(err))
		}
	}
}

func (o *Operation) publish(ctx context.Context) error {
	return o.Advertiser.Advertise(ctx, Advertisement{
		Priority: o.Priority,
		APIProto: o.APIProto,
		APIVer:   o.APIVer,
		Versions: o.versions.Snapshot(),
	})
}

// withdraw republishes the service without the ver_* records (spec.md
// §4.6 "on exit"), using a fresh context since ctx may already be done.
func (o *Operation) withdraw(ctx context.Context) {
	if err := o.Advertiser.Advertise(context.Background(), Advertisement{
		Priority: o.Priority,
		APIProto: o.APIProto,
		APIVer:   o.APIVer,
	}); err != nil {
		o.Logger.Error("peer-to-peer: failed to withdraw version records", zap.Error(err))
	}
}

// startRediscovery runs the background retry task of spec.md §4.6 (2):
// every RediscoverEvery, browse for a Registration API; report true the
// first time one is found, then stop.
func (o *Operation) startRediscovery(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		ticker := time.NewTicker(o.RediscoverEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				found, err := o.Rediscoverer.Browse(ctx)
				if err != nil {
					o.Logger.Warn("peer-to-peer: rediscovery browse failed", zap.Error(err))
					continue
				}
				if found {
					out <- true
					return
				}
			}
		}
	}()
	return out
}
