package fsm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/discovery"
)

func (a *Agent) discoveryConfig() discovery.Config {
	cfg := discovery.Config{Browser: a.Browser, Logger: a.Logger}
	if a.Settings.RegistryAddress != "" {
		cfg.Fallback = &discovery.Registry{URI: a.Settings.RegistryAddress}
	}
	return cfg
}

// runInitialDiscovery implements spec.md §4.1's INITIAL_DISCOVERY state: a
// transport-level browse failure is retried at an increasing backoff
// (spec.md §4.1 "between INITIAL_DISCOVERY attempts"); a browse that
// succeeds but yields nothing (after the fallback is considered) is a
// state transition to PEER_TO_PEER, not a retry — the transition table
// names exactly those two outcomes for this state.
func (a *Agent) runInitialDiscovery(ctx context.Context) (Mode, error) {
	for {
		timer := time.NewTimer(a.backoff.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ModeInitialDiscovery, ctx.Err()
		case <-timer.C:
		}

		list, err := discovery.Discover(ctx, a.discoveryConfig())
		if err != nil {
			a.Logger.Warn("discovery attempt failed, backing off", zap.Error(err))
			a.backoff.Fail()
			continue
		}
		a.backoff.Reset()

		if list.Empty() {
			return ModePeerToPeer, nil
		}
		a.registries = list
		return ModeInitialRegistration, nil
	}
}

// runRediscovery implements spec.md §4.1's REDISCOVERY state, entered once
// REGISTERED_OPERATION exhausts every known registry. A fresh registry
// list leads straight to REGISTERED_OPERATION (not INITIAL_REGISTRATION):
// the node's self_id is already known, and the synchronous heartbeat probe
// at the top of REGISTERED_OPERATION determines whether this registry
// actually knows about the node yet.
func (a *Agent) runRediscovery(ctx context.Context) (Mode, error) {
	list, err := discovery.Discover(ctx, a.discoveryConfig())
	if err != nil {
		if ctx.Err() != nil {
			return ModeRediscovery, ctx.Err()
		}
		a.Logger.Warn("rediscovery attempt failed", zap.Error(err))
		return ModePeerToPeer, nil
	}
	if list.Empty() {
		return ModePeerToPeer, nil
	}
	a.registries = list
	return ModeRegisteredOperation, nil
}
