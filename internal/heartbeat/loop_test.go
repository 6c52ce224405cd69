package heartbeat_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amwa-nmos/node-agent/internal/heartbeat"
)

type fakeTransport struct {
	statuses []int
	errs     []error
	calls    int
}

func (f *fakeTransport) Beat(ctx context.Context, selfID string) (int, error) {
	i := f.calls
	f.calls++
	if i >= len(f.statuses) {
		return f.statuses[len(f.statuses)-1], f.errs[len(f.errs)-1]
	}
	return f.statuses[i], f.errs[i]
}

var _ = Describe("Loop", func() {
	It("reports StatusOK on a 200 probe", func() {
		transport := &fakeTransport{statuses: []int{200}, errs: []error{nil}}
		l := heartbeat.New(heartbeat.Config{Transport: transport, SelfID: "node0"})

		o := l.Probe(context.Background())

		Expect(o.Status).To(Equal(heartbeat.StatusOK))
		Expect(o.Err).NotTo(HaveOccurred())
	})

	It("exits with StatusUnregistered on a 404", func() {
		transport := &fakeTransport{statuses: []int{200, 404}, errs: []error{nil, nil}}
		l := heartbeat.New(heartbeat.Config{Transport: transport, Interval: 5 * time.Millisecond, SelfID: "node0"})

		out := l.Run(context.Background())
		var o heartbeat.Outcome
		Eventually(out).Should(Receive(&o))

		Expect(o.Status).To(Equal(heartbeat.StatusUnregistered))
	})

	It("exits with StatusServiceError on a transport failure", func() {
		transport := &fakeTransport{statuses: []int{0}, errs: []error{errors.New("boom")}}
		l := heartbeat.New(heartbeat.Config{Transport: transport, Interval: 5 * time.Millisecond, SelfID: "node0"})

		out := l.Run(context.Background())
		var o heartbeat.Outcome
		Eventually(out).Should(Receive(&o))

		Expect(o.Status).To(Equal(heartbeat.StatusServiceError))
	})

	It("exits cleanly when its context is cancelled", func() {
		transport := &fakeTransport{statuses: []int{200}, errs: []error{nil}}
		ctx, cancel := context.WithCancel(context.Background())
		l := heartbeat.New(heartbeat.Config{Transport: transport, Interval: 5 * time.Millisecond, SelfID: "node0"})

		out := l.Run(ctx)
		cancel()

		var o heartbeat.Outcome
		Eventually(out).Should(Receive(&o))
		Expect(o.Status).To(Equal(heartbeat.StatusOK))
		Expect(o.Err).To(MatchError(context.Canceled))
	})
})
