// Package nodeagent wires the Node Behaviour Agent's core (internal/fsm)
// to concrete transport adapters (internal/httptransport,
// internal/mdnstransport) into a runnable Agent, following the teacher's
// root-package wiring style (aspen's db.go/open.go/options.go: an Option
// slice merged over defaults, producing one long-lived value with a
// blocking Run/Open entrypoint).
//
// The resource model itself — constructing nodes, devices, sources, flows,
// senders and receivers, and exposing the Node API HTTP surface to other
// peers — is out of scope (spec.md §1): callers supply a
// github.com/amwa-nmos/node-agent/internal/resource.Store and everything
// downstream of it is this module's concern.
package nodeagent

import (
	"context"

	"github.com/amwa-nmos/node-agent/internal/fsm"
	"github.com/amwa-nmos/node-agent/internal/httptransport"
	"github.com/amwa-nmos/node-agent/internal/mdnstransport"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

// Agent is a fully wired Node Behaviour Agent (spec.md §2 SYSTEM OVERVIEW):
// discovery, registration, heartbeat and peer-to-peer fallback, bound to a
// caller-supplied resource.Store.
type Agent struct {
	core       *fsm.Agent
	advertiser *mdnstransport.Advertiser
}

// New constructs an Agent around store, starting in INITIAL_DISCOVERY
// (spec.md §3). Unless overridden with WithBrowser/WithAdvertiser/
// WithTransports, the default wiring browses and advertises over mDNS via
// internal/mdnstransport and speaks to registries via internal/httptransport.
func New(store resource.Store, opts ...Option) *Agent {
	o := newOptions(opts...)

	var advertiser *mdnstransport.Advertiser
	if o.advertiser == nil {
		advertiser = mdnstransport.NewAdvertiser(o.instance, o.settings.ConnectionPort, o.logger)
		o.advertiser = advertiser
	}
	if o.browser == nil {
		o.browser = mdnstransport.NewBrowser(o.logger)
	}
	if o.transports == nil {
		o.transports = httptransport.New(o.settings.RegistryVersion, httptransport.Config{})
	}

	core := fsm.New(fsm.Config{
		Store:      store,
		Browser:    o.browser,
		Advertiser: o.advertiser,
		Transports: o.transports,
		Settings:   o.settings,
		Logger:     o.logger,
	})

	return &Agent{core: core, advertiser: advertiser}
}

// Run drives the agent until ctx is cancelled (spec.md §4.7 Shutdown). A
// context.Canceled/context.DeadlineExceeded return indicates a clean
// shutdown; any other error is unexpected and means the agent terminated
// early. On return, any mDNS service advertisement created by the default
// wiring is withdrawn.
func (a *Agent) Run(ctx context.Context) error {
	err := a.core.Run(ctx)
	if a.advertiser != nil {
		a.advertiser.Close()
	}
	return err
}
