package fsm

import (
	"context"

	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/p2p"
)

// rediscoverer adapts the agent's own discovery configuration into a
// p2p.Rediscoverer: the background task in peer-to-peer mode only needs a
// yes/no answer, but on a yes the fsm re-runs discovery once to get the
// registry list itself (discovery.Discover is cheap and idempotent).
type rediscoverer struct {
	cfg discovery.Config
}

func (r rediscoverer) Browse(ctx context.Context) (bool, error) {
	list, err := discovery.Discover(ctx, r.cfg)
	if err != nil {
		return false, err
	}
	return !list.Empty(), nil
}

// runPeerToPeer implements spec.md §4.1/§4.6's PEER_TO_PEER state.
func (a *Agent) runPeerToPeer(ctx context.Context) (Mode, error) {
	op := p2p.New(p2p.Config{
		Advertiser:   a.Advertiser,
		Rediscoverer: rediscoverer{cfg: a.discoveryConfig()},
		Priority:     a.Settings.Pri,
		APIProto:     a.apiProto(),
		APIVer:       a.Settings.RegistryVersion,
		Logger:       a.Logger,
	})

	rediscovered, err := op.Run(ctx, a.Store.Grain())
	if err != nil {
		return ModePeerToPeer, err
	}
	if !rediscovered {
		return ModePeerToPeer, nil
	}

	list, err := discovery.Discover(ctx, a.discoveryConfig())
	if err != nil {
		if ctx.Err() != nil {
			return ModePeerToPeer, ctx.Err()
		}
		return ModePeerToPeer, nil
	}
	if list.Empty() {
		return ModePeerToPeer, nil
	}
	a.registries = list
	return ModeInitialRegistration, nil
}

func (a *Agent) apiProto() string {
	if a.Settings.ClientSecure {
		return "https"
	}
	return "http"
}
