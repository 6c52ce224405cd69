package nodeagent_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	nodeagent "github.com/amwa-nmos/node-agent"
	"github.com/amwa-nmos/node-agent/internal/config"
	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/mock"
)

var _ = Describe("Agent", func() {
	It("wires a caller-supplied Store to the fake transports and reaches registered operation", func() {
		store := mock.NewStore()
		browser := &mock.Browser{}
		transports := mock.NewTransports()
		advertiser := &mock.Advertiser{}

		browser.SetRegistries(discovery.Registry{Priority: 0, URI: "http://registry:8235"})
		registry := transports.Registry("http://registry:8235")
		registry.HeartbeatStatuses = []int{200, 200, 200}

		agent := nodeagent.New(store,
			nodeagent.WithSettings(config.Settings{
				RegistrationHeartbeatInterval: 5 * time.Millisecond,
				DiscoveryBackoffMin:           0.001,
				DiscoveryBackoffMax:           0.001,
				DiscoveryBackoffFactor:        1,
			}),
			nodeagent.WithBrowser(browser),
			nodeagent.WithAdvertiser(advertiser),
			nodeagent.WithTransports(transports),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go agent.Run(ctx)

		nodeID := store.AddNode()

		Eventually(func() bool {
			for _, req := range registry.History() {
				if req.Method == "POST" && string(req.Body) != "" {
					return true
				}
			}
			return false
		}).Should(BeTrue())

		Eventually(func() bool {
			for _, req := range registry.History() {
				if req.Method == "HEARTBEAT" && req.Path == nodeID {
					return true
				}
			}
			return false
		}).Should(BeTrue())
	})
})
