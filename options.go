package nodeagent

import (
	"go.uber.org/zap"

	"github.com/amwa-nmos/node-agent/internal/config"
	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/fsm"
	"github.com/amwa-nmos/node-agent/internal/p2p"
)

// Option configures an Agent at construction time, following the
// teacher's Option func(*options) idiom (aspen's root options.go).
type Option func(*options)

type options struct {
	settings   config.Settings
	logger     *zap.Logger
	browser    discovery.Browser
	advertiser p2p.Advertiser
	transports fsm.Transports
	instance   string
}

// WithSettings supplies the recognised settings of spec.md §6. Any field
// left at its zero value is filled in from config.DefaultSettings.
func WithSettings(s config.Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithLogger overrides the *zap.Logger every sub-package's Config carries
// (SPEC_FULL.md §A.1). Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBrowser overrides the mDNS Registration API browser. Defaults to an
// internal/mdnstransport.Browser.
func WithBrowser(b discovery.Browser) Option {
	return func(o *options) { o.browser = b }
}

// WithAdvertiser overrides the mDNS node-service advertiser used in
// peer-to-peer mode. Defaults to an internal/mdnstransport.Advertiser
// named after Instance.
func WithAdvertiser(a p2p.Advertiser) Option {
	return func(o *options) { o.advertiser = a }
}

// WithTransports overrides the Registration/Heartbeat HTTP transport
// factory. Defaults to an internal/httptransport.Transports bound to
// Settings.RegistryVersion.
func WithTransports(t fsm.Transports) Option {
	return func(o *options) { o.transports = t }
}

// WithInstance sets the mDNS instance name the default advertiser
// registers under (ignored if WithAdvertiser is also given).
func WithInstance(name string) Option {
	return func(o *options) { o.instance = name }
}

func newOptions(opts ...Option) *options {
	o := &options{settings: config.DefaultSettings()}
	for _, opt := range opts {
		opt(o)
	}
	mergeDefaultOptions(o)
	return o
}

func mergeDefaultOptions(o *options) {
	o.settings = o.settings.Merge(config.DefaultSettings())
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.instance == "" {
		o.instance = "nmos-node"
	}
}
