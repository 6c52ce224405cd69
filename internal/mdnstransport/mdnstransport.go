// Package mdnstransport is the concrete mDNS adapter for the Browser and
// Advertiser transports spec.md §1/§6 leave abstract: it browses for
// "_nmos-registration._tcp" instances and advertises the node's own
// "_nmos-node._tcp" service, using github.com/grandcat/zeroconf.
package mdnstransport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/config"
	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/p2p"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

// defaultBrowseTimeout bounds a single browse pass (spec.md §4.2 "discover()"
// must return a — possibly empty — list, not block for the agent's whole
// lifetime).
const defaultBrowseTimeout = 3 * time.Second

const (
	registrationServiceType = "_nmos-registration._tcp"
	nodeServiceType         = "_nmos-node._tcp"
	domain                  = "local."
)

// versionKey maps a resource type to the TXT record key spec.md §3/§6
// publish it under.
var versionKey = map[resource.Type]string{
	resource.TypeNode:     "ver_slf",
	resource.TypeDevice:   "ver_dev",
	resource.TypeSource:   "ver_src",
	resource.TypeFlow:     "ver_flw",
	resource.TypeSender:   "ver_snd",
	resource.TypeReceiver: "ver_rcv",
}

// Browser implements discovery.Browser by browsing for
// "_nmos-registration._tcp" mDNS instances (spec.md §4.2, §6).
type Browser struct {
	// Timeout bounds a single browse pass. Zero means defaultBrowseTimeout.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewBrowser returns a Browser that times each browse pass at
// defaultBrowseTimeout.
func NewBrowser(logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{Timeout: defaultBrowseTimeout, Logger: logger}
}

func (b *Browser) Browse(ctx context.Context) ([]discovery.Registry, error) {
	if b.Logger == nil {
		b.Logger = zap.NewNop()
	}
	timeout := b.Timeout
	if timeout == 0 {
		timeout = defaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, errors.Wrap(err, "mdnstransport: creating resolver")
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	var registries []discovery.Registry
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			r, ok := entryToRegistry(entry)
			if !ok {
				b.Logger.Debug("mdnstransport: ignoring registration entry with no parsable priority",
					zap.String("instance", entry.Instance))
				continue
			}
			registries = append(registries, r)
		}
	}()

	if err := resolver.Browse(ctx, registrationServiceType, domain, entries); err != nil {
		return nil, errors.Wrap(err, "mdnstransport: browse failed")
	}
	<-ctx.Done()
	wg.Wait()

	return registries, nil
}

func entryToRegistry(entry *zeroconf.ServiceEntry) (discovery.Registry, bool) {
	txt := parseTXT(entry.Text)
	pri, ok := parsePriority(txt)
	if !ok {
		return discovery.Registry{}, false
	}

	proto := txt["api_proto"]
	if proto == "" {
		proto = "http"
	}
	host := entry.HostName
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	}
	uri := fmt.Sprintf("%s://%s", proto, net.JoinHostPort(strings.TrimSuffix(host, "."), strconv.Itoa(entry.Port)))
	return discovery.Registry{Priority: pri, URI: uri}, true
}

func parsePriority(txt map[string]string) (uint, bool) {
	v, ok := txt["pri"]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, found := strings.Cut(r, "=")
		if !found {
			continue
		}
		out[k] = v
	}
	return out
}

// Advertiser implements p2p.Advertiser by registering/re-registering a
// zeroconf service; it is used only in peer-to-peer mode. The
// grandcat/zeroconf Server has no in-place TXT update, so every call to
// Advertise shuts down any previous registration and registers afresh —
// functionally equivalent to node_behaviour.cpp's update_node_service,
// which likewise re-advertises on every version change.
type Advertiser struct {
	Instance string
	Port     int
	Logger   *zap.Logger

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser returns an Advertiser for the node's own service, bound to
// the given instance name and port.
func NewAdvertiser(instance string, port int, logger *zap.Logger) *Advertiser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advertiser{Instance: instance, Port: port, Logger: logger}
}

func (a *Advertiser) Advertise(ctx context.Context, ad p2p.Advertisement) error {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	txt := []string{
		"api_proto=" + ad.APIProto,
		"api_ver=" + ad.APIVer,
		"pri=" + strconv.FormatUint(uint64(ad.Priority), 10),
	}
	// no_priority suppresses advertisement entirely (spec.md §4.6 (5),
	// node_behaviour.cpp's advertise_node_service no_priority guard).
	suppress := ad.Priority == config.NoPriority

	for _, t := range resource.Types {
		if v, ok := ad.Versions[t]; ok {
			txt = append(txt, fmt.Sprintf("%s=%d", versionKey[t], v))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	if suppress {
		a.Logger.Debug("mdnstransport: no_priority set, not advertising node service")
		return nil
	}

	server, err := zeroconf.Register(a.Instance, nodeServiceType, domain, a.Port, txt, nil)
	if err != nil {
		return errors.Wrap(err, "mdnstransport: registering node service")
	}
	a.server = server
	return nil
}

// Close withdraws the node's service advertisement, if any (spec.md §4.7
// "withdraws any version TXT records published").
func (a *Advertiser) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
