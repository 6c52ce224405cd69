package fsm_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amwa-nmos/node-agent/internal/config"
	"github.com/amwa-nmos/node-agent/internal/discovery"
	"github.com/amwa-nmos/node-agent/internal/fsm"
	"github.com/amwa-nmos/node-agent/internal/mock"
)

var _ = Describe("Agent", func() {
	var (
		store      *mock.Store
		browser    *mock.Browser
		transports *mock.Transports
		advertiser *mock.Advertiser
		agent      *fsm.Agent
		ctx        context.Context
		cancel     context.CancelFunc
	)

	BeforeEach(func() {
		store = mock.NewStore()
		browser = &mock.Browser{}
		transports = mock.NewTransports()
		advertiser = &mock.Advertiser{}
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	newAgent := func(settings config.Settings) *fsm.Agent {
		return fsm.New(fsm.Config{
			Store:      store,
			Browser:    browser,
			Advertiser: advertiser,
			Transports: transports,
			Settings:   settings,
		})
	}

	Context("happy path", func() {
		It("registers the node then the device and starts heartbeating", func() {
			browser.SetRegistries(discovery.Registry{Priority: 100, URI: "http://r:8235"})
			registry := transports.Registry("http://r:8235")
			registry.HeartbeatStatuses = []int{200, 200, 200, 200, 200}

			agent = newAgent(config.Settings{
				RegistrationHeartbeatInterval: 5 * time.Millisecond,
				DiscoveryBackoffMin:           0.001,
				DiscoveryBackoffMax:           0.001,
				DiscoveryBackoffFactor:        1,
			})

			go agent.Run(ctx)

			nodeID := store.AddNode()
			deviceID := store.Add("device")
			_ = deviceID

			Eventually(registry.RequestCount).Should(BeNumerically(">=", 2))
			history := registry.History()
			Expect(history[0].Method).To(Equal("POST"))
			Expect(history[1].Method).To(Equal("POST"))

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

	Context("no registries discovered", func() {
		It("falls back to peer-to-peer and publishes version counters", func() {
			browser.SetRegistries() // empty

			agent = newAgent(config.Settings{
				DiscoveryBackoffMin:    0.001,
				DiscoveryBackoffMax:    0.001,
				DiscoveryBackoffFactor: 1,
			})

			go agent.Run(ctx)

			store.AddNode()
			store.Add("device")

			Eventually(func() int { return len(advertiser.History()) }).Should(BeNumerically(">=", 1))
			Eventually(func() bool {
				for _, ad := range advertiser.History() {
					if ad.Versions != nil && ad.Versions["device"] == 1 {
						return true
					}
				}
				return false
			}).Should(BeTrue())

			for _, req := range transports.Registry("http://r:8235").History() {
				Expect(req.Method).NotTo(Equal("POST"))
			}
		})
	})

	Context("heartbeat 404 mid-operation", func() {
		It("re-enters INITIAL_REGISTRATION and replays the node payload", func() {
			browser.SetRegistries(discovery.Registry{Priority: 100, URI: "http://r:8235"})
			registry := transports.Registry("http://r:8235")
			registry.HeartbeatStatuses = []int{200, 200, 200, 404, 200, 200}

			agent = newAgent(config.Settings{
				RegistrationHeartbeatInterval: 3 * time.Millisecond,
				DiscoveryBackoffMin:           0.001,
				DiscoveryBackoffMax:           0.001,
				DiscoveryBackoffFactor:        1,
			})

			go agent.Run(ctx)

			nodeID := store.AddNode()

			Eventually(func() int {
				count := 0
				for _, req := range registry.History() {
					if req.Method == "POST" {
						count++
					}
				}
				return count
			}, "200ms").Should(BeNumerically(">=", 2))

			var posts []mock.Request
			for _, req := range registry.History() {
				if req.Method == "POST" {
					posts = append(posts, req)
				}
			}
			Expect(string(posts[len(posts)-1].Body)).To(ContainSubstring(nodeID))
		})
	})
})
