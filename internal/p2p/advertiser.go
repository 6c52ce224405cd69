// Package p2p implements the agent's peer-to-peer fallback (spec.md §4.6):
// advertising the node's own mDNS service with version counters embedded
// in TXT records, and retrying discovery of a Registration API in the
// background.
package p2p

import (
	"context"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

// Advertisement is the TXT-record content published for the node's own
// mDNS service (spec.md §4.6, §3 "api_resource_versions").
type Advertisement struct {
	Priority uint
	APIProto string
	APIVer   string
	// Versions is nil while withdrawing the ver_* records on exit (spec.md
	// §4.6 "republish the service without the ver_* records").
	Versions map[resource.Type]uint64
}

// Advertiser is the external mDNS advertise transport (spec.md §1, §6).
// Concrete implementation: internal/mdnstransport.
type Advertiser interface {
	Advertise(ctx context.Context, ad Advertisement) error
}

// Rediscoverer is the external mDNS browse transport reused here to detect
// a Registration API reappearing while the agent is in peer-to-peer mode.
type Rediscoverer interface {
	Browse(ctx context.Context) (found bool, err error)
}
