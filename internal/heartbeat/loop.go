// Package heartbeat runs the periodic liveness POST that keeps a node's
// registration alive, and reports terminal outcomes to the state machine
// over a channel (spec.md §4.4, §9 — message-passing in place of the
// original's shared flags and condition variable).
package heartbeat

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Status classifies a heartbeat's result (spec.md §4.4).
type Status int

const (
	// StatusOK means the heartbeat succeeded; the loop keeps running.
	StatusOK Status = iota
	// StatusUnregistered is a 404: the node must re-register.
	StatusUnregistered
	// StatusServiceError is a 5xx or transport failure: the current
	// registry must be abandoned.
	StatusServiceError
)

// Outcome is sent on a Loop's outcome channel whenever the loop exits.
type Outcome struct {
	Status Status
	Err    error
}

// Transport is the external HTTP client for the single heartbeat request
// (spec.md §1, §6). Concrete implementation: internal/httptransport.
type Transport interface {
	Beat(ctx context.Context, selfID string) (status int, err error)
}

// Config configures a Loop, following the teacher's Config/Merge idiom
// (internal/cluster/gossip/config.go).
type Config struct {
	Transport Transport
	Interval  time.Duration
	SelfID    string
	Logger    *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Transport == nil {
		cfg.Transport = def.Transport
	}
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func DefaultConfig() Config { return Config{Interval: 5 * time.Second, Logger: zap.NewNop()} }

// Loop is the periodic background heartbeat task of spec.md §4.4.
// Grounded on node_behaviour.cpp's update_node_health together with the
// teacher's ticker-driven background task, gossip.Gossip.Gossip
// (internal/cluster/gossip/gossip.go) — here built on a plain time.Ticker
// and a cancellable goroutine rather than the teacher's own
// shutdown.GoTick helper, which lives in the unavailable arya-analytics/x
// module (see DESIGN.md).
type Loop struct {
	Config
}

// New constructs a Loop.
func New(cfg Config) *Loop { return &Loop{Config: cfg.Merge(DefaultConfig())} }

// Probe issues the single synchronous heartbeat spec.md §4.4 requires
// immediately after selecting a new registry, before the periodic
// background loop is started.
func (l *Loop) Probe(ctx context.Context) Outcome {
	return l.beatOnce(ctx)
}

// Run starts the periodic background heartbeat. It returns a channel that
// receives exactly one Outcome when the loop exits — either because a
// heartbeat signalled a terminal condition, or because ctx was cancelled
// (in which case Outcome.Status is StatusOK and Err is ctx.Err(), letting
// the caller distinguish a clean shutdown from a real failure).
func (l *Loop) Run(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(l.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				out <- Outcome{Status: StatusOK, Err: ctx.Err()}
				return
			case <-ticker.C:
				o := l.beatOnce(ctx)
				if o.Status != StatusOK {
					out <- o
					return
				}
			}
		}
	}()
	return out
}

func (l *Loop) beatOnce(ctx context.Context) Outcome {
	status, err := l.Transport.Beat(ctx, l.SelfID)
	if err != nil {
		l.Logger.Error("heartbeat transport failure", zap.Error(err))
		return Outcome{Status: StatusServiceError, Err: err}
	}
	switch {
	case status == 200:
		l.Logger.Debug("heartbeat ok", zap.String("self_id", l.SelfID))
		return Outcome{Status: StatusOK}
	case status == 404:
		l.Logger.Warn("heartbeat reports node unregistered", zap.String("self_id", l.SelfID))
		return Outcome{Status: StatusUnregistered}
	case status >= 500:
		l.Logger.Error("heartbeat service error", zap.Int("status", status))
		return Outcome{Status: StatusServiceError}
	default:
		l.Logger.Error("heartbeat unexpected status", zap.Int("status", status))
		return Outcome{Status: StatusOK}
	}
}
