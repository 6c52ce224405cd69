package fsm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/amwa-nmos/node-agent/internal/heartbeat"
)

// heartbeatSession owns the cancellation source and join for a single
// background heartbeat task (spec.md §5 "Cancellation: each background
// task owns a cancellation source... followed by a join"). Grounded on the
// teacher's errgroup-based quorum joins (internal/pledge/responsible.go,
// internal/member/responsible.go).
type heartbeatSession struct {
	cancel   context.CancelFunc
	outcomeC <-chan heartbeat.Outcome
	group    *errgroup.Group
}

func startHeartbeat(ctx context.Context, loop *heartbeat.Loop) *heartbeatSession {
	hctx, cancel := context.WithCancel(ctx)
	group, _ := errgroup.WithContext(hctx)

	outcomeC := make(chan heartbeat.Outcome, 1)
	group.Go(func() error {
		o, ok := <-loop.Run(hctx)
		if ok {
			outcomeC <- o
		}
		close(outcomeC)
		return nil
	})

	return &heartbeatSession{cancel: cancel, outcomeC: outcomeC, group: group}
}

// stop cancels the background heartbeat and blocks until it has joined.
func (s *heartbeatSession) stop() {
	s.cancel()
	_ = s.group.Wait()
}
