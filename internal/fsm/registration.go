package fsm

import (
	"context"

	"github.com/amwa-nmos/node-agent/internal/registration"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

// runInitialRegistration implements spec.md §4.1/§4.5's INITIAL_REGISTRATION
// state: drain the grain, discarding events until the node's own
// added/sync event is seen, latch self_id, and register it; a registry
// service error pops the current registry and retries the next one.
func (a *Agent) runInitialRegistration(ctx context.Context) (Mode, error) {
	a.Store.Sync()

	for {
		if err := ctx.Err(); err != nil {
			return ModeInitialRegistration, err
		}
		if a.registries == nil || a.registries.Empty() {
			return ModeInitialDiscovery, nil
		}
		reg, _ := a.registries.Top()
		client := registration.New(registration.Config{
			Transport:       a.Transports.Registration(reg.URI),
			RegistryVersion: a.Settings.RegistryVersion,
			Store:           a.Store,
			Logger:          a.Logger,
		})
		grain := a.Store.Grain()

		for {
			select {
			case <-ctx.Done():
				return ModeInitialRegistration, ctx.Err()
			case <-grain.Wake():
			}

			events, _ := grain.Drain()
			remaining, transitioned, err := a.processInitial(ctx, client, events)
			grain.Restore(remaining)

			if err != nil {
				// Either a *ServiceError from a 5xx/transport failure, or a
				// context cancellation surfaced through the transport —
				// either way the current registry is abandoned; the next
				// iteration of the outer loop re-checks ctx before trying
				// another one.
				a.registries.Pop()
				break
			}
			if transitioned {
				return ModeRegisteredOperation, nil
			}
		}
	}
}

// processInitial implements the INITIAL_REGISTRATION half of spec.md
// §4.5's drain protocol: discard every event until the first added/sync
// node event, latch self_id and register it, then fall through to full
// REGISTERED_OPERATION semantics for whatever remains in the same batch.
func (a *Agent) processInitial(ctx context.Context, client *registration.Client, events []resource.Event) (remaining []resource.Event, transitioned bool, err error) {
	for i, ev := range events {
		if ev.Path.Type != resource.TypeNode || (ev.Kind != resource.KindAdded && ev.Kind != resource.KindSync) {
			continue
		}
		a.selfID = ev.Path.ID
		if rerr := client.Register(ctx, ev); rerr != nil {
			return events[i:], false, rerr
		}
		rest, perr := a.processRegistered(ctx, client, events[i+1:])
		return rest, true, perr
	}
	return nil, false, nil
}

// processRegistered implements the REGISTERED_OPERATION half of spec.md
// §4.5: every drained event is registered in order; the first service
// error stops the drain, leaving the failing event and everything after
// it to be restored to the grain.
func (a *Agent) processRegistered(ctx context.Context, client *registration.Client, events []resource.Event) (remaining []resource.Event, err error) {
	for i, ev := range events {
		if rerr := client.Register(ctx, ev); rerr != nil {
			return events[i:], rerr
		}
	}
	return nil, nil
}
