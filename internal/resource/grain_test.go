package resource_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amwa-nmos/node-agent/internal/resource"
)

var _ = Describe("Grain", func() {
	It("drains events in FIFO order and bumps the watermark", func() {
		g := resource.NewGrain()
		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "a"}, Kind: resource.KindAdded})
		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "b"}, Kind: resource.KindAdded})

		events, watermark := g.Drain()

		Expect(events).To(HaveLen(2))
		Expect(events[0].Path.ID).To(Equal("a"))
		Expect(events[1].Path.ID).To(Equal("b"))
		Expect(watermark).To(Equal(uint64(2)))
	})

	It("preserves FIFO order when restoring unprocessed events ahead of new ones", func() {
		g := resource.NewGrain()
		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "a"}, Kind: resource.KindAdded})
		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "b"}, Kind: resource.KindAdded})

		drained, _ := g.Drain()
		unprocessed := drained[1:] // pretend "a" was handled, "b" was not

		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "c"}, Kind: resource.KindAdded})
		g.Restore(unprocessed)

		events, _ := g.Drain()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Path.ID).To(Equal("b"))
		Expect(events[1].Path.ID).To(Equal("c"))
	})

	It("signals Wake on Push and Restore", func() {
		g := resource.NewGrain()
		g.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "a"}})
		Eventually(g.Wake()).Should(Receive())

		g.Restore([]resource.Event{{Path: resource.Path{Type: resource.TypeDevice, ID: "b"}}})
		Eventually(g.Wake()).Should(Receive())
	})
})

var _ = Describe("Event", func() {
	It("returns Post for Data, falling back to Pre when Post is absent", func() {
		added := resource.Event{Kind: resource.KindAdded, Post: map[string]any{"id": "x"}}
		Expect(added.Data()).To(Equal(map[string]any{"id": "x"}))

		removed := resource.Event{Kind: resource.KindRemoved, Pre: map[string]any{"id": "x"}}
		Expect(removed.Data()).To(Equal(map[string]any{"id": "x"}))
	})

	It("renders its path as <type-plural>/<id>", func() {
		p := resource.Path{Type: resource.TypeDevice, ID: "abc"}
		Expect(p.String()).To(Equal("devices/abc"))
	})
})
