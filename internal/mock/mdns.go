package mock

import (
	"context"
	"sync"

	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/p2p"
)

// Browser is a scriptable fake discovery.Browser.
type Browser struct {
	mu         sync.Mutex
	Registries []discovery.Registry
	Err        error
}

func (b *Browser) Browse(ctx context.Context) ([]discovery.Registry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	out := make([]discovery.Registry, len(b.Registries))
	copy(out, b.Registries)
	return out, nil
}

// SetRegistries replaces the set of registries the next Browse call returns.
func (b *Browser) SetRegistries(rs ...discovery.Registry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Registries = rs
}

// Advertiser is a fake p2p.Advertiser recording every published
// advertisement, for assertions on version-counter progression.
type Advertiser struct {
	mu  sync.Mutex
	ads []p2p.Advertisement
}

func (a *Advertiser) Advertise(ctx context.Context, ad p2p.Advertisement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ads = append(a.ads, ad)
	return nil
}

// History returns every advertisement published so far, in order.
func (a *Advertiser) History() []p2p.Advertisement {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]p2p.Advertisement, len(a.ads))
	copy(out, a.ads)
	return out
}
