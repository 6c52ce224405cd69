package fsm

import (
	"context"

	"github.com/amwa-nmos/node-agent/internal/heartbeat"
	"github.com/amwa-nmos/node-agent/internal/registration"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

// runRegisteredOperation implements spec.md §4.1/§4.4's REGISTERED_OPERATION
// state. Every entry — whether from INITIAL_REGISTRATION, REDISCOVERY, or a
// mid-operation registry switch — starts with a single synchronous
// heartbeat probe before the periodic background loop is started (spec.md
// §4.4); a probe that reports the node unregistered sends the agent back
// to INITIAL_REGISTRATION without touching the registry list, and a probe
// service error pops the registry and tries the next one.
func (a *Agent) runRegisteredOperation(ctx context.Context) (Mode, error) {
	grain := a.Store.Grain()

	for {
		if a.registries.Empty() {
			return ModeRediscovery, nil
		}
		reg, _ := a.registries.Top()

		client := registration.New(registration.Config{
			Transport:       a.Transports.Registration(reg.URI),
			RegistryVersion: a.Settings.RegistryVersion,
			Store:           a.Store,
			Logger:          a.Logger,
		})
		loop := heartbeat.New(heartbeat.Config{
			Transport: a.Transports.Heartbeat(reg.URI),
			Interval:  a.Settings.RegistrationHeartbeatInterval,
			SelfID:    a.selfID,
			Logger:    a.Logger,
		})

		probe := loop.Probe(ctx)
		switch probe.Status {
		case heartbeat.StatusUnregistered:
			return ModeInitialRegistration, nil
		case heartbeat.StatusServiceError:
			if ctx.Err() != nil {
				return ModeRegisteredOperation, ctx.Err()
			}
			a.registries.Pop()
			continue
		}

		mode, err := a.pumpRegistered(ctx, client, loop, grain)
		if err != nil {
			return ModeRegisteredOperation, err
		}
		if mode == ModeRegisteredOperation {
			// The pump popped the registry itself on a mid-operation
			// service error; retry with whatever is now on top.
			continue
		}
		return mode, nil
	}
}

// pumpRegistered runs the event pump and the background heartbeat
// concurrently for as long as a single registry remains viable, per
// spec.md §4.5. Returning ModeRegisteredOperation with a nil error means
// the pump has already popped the current registry and the caller should
// retry with the next one; any other mode is a real state transition.
func (a *Agent) pumpRegistered(ctx context.Context, client *registration.Client, loop *heartbeat.Loop, grain *resource.Grain) (Mode, error) {
	session := startHeartbeat(ctx, loop)
	defer session.stop()

	for {
		select {
		case <-ctx.Done():
			return ModeRegisteredOperation, ctx.Err()

		case o := <-session.outcomeC:
			switch o.Status {
			case heartbeat.StatusUnregistered:
				return ModeInitialRegistration, nil
			case heartbeat.StatusServiceError:
				a.registries.Pop()
				return ModeRegisteredOperation, nil
			default:
				// Context cancellation surfaces as a StatusOK outcome with
				// Err set (heartbeat.Loop.Run's shutdown signal).
				if o.Err != nil {
					return ModeRegisteredOperation, o.Err
				}
			}

		case <-grain.Wake():
			events, _ := grain.Drain()
			remaining, err := a.processRegistered(ctx, client, events)
			grain.Restore(remaining)
			if err != nil {
				a.registries.Pop()
				return ModeRegisteredOperation, nil
			}
			for _, ev := range events {
				// The node withdrew its own registration: stop heartbeating
				// without waiting for a 404.
				if ev.Kind == resource.KindRemoved && ev.Path.Type == resource.TypeNode && ev.Path.ID == a.selfID {
					return ModeInitialDiscovery, nil
				}
			}
		}
	}
}
