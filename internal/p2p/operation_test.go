package p2p_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amwa-nmos/node-agent/internal/p2p"
	"github.com/amwa-nmos/node-agent/internal/resource"
)

type fakeAdvertiser struct {
	mu  sync.Mutex
	ads []p2p.Advertisement
}

func (f *fakeAdvertiser) Advertise(ctx context.Context, ad p2p.Advertisement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ads = append(f.ads, ad)
	return nil
}

func (f *fakeAdvertiser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ads)
}

func (f *fakeAdvertiser) last() p2p.Advertisement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ads[len(f.ads)-1]
}

type fakeRediscoverer struct {
	mu    sync.Mutex
	found bool
}

func (f *fakeRediscoverer) Browse(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.found, nil
}

func (f *fakeRediscoverer) setFound() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.found = true
}

var _ = Describe("Operation", func() {
	It("folds drained events into version counters and republishes", func() {
		ad := &fakeAdvertiser{}
		rd := &fakeRediscoverer{}
		grain := resource.NewGrain()
		op := p2p.New(p2p.Config{Advertiser: ad, Rediscoverer: rd, RediscoverEvery: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			op.Run(ctx, grain)
			close(done)
		}()

		Eventually(ad.count).Should(BeNumerically(">=", 1))

		grain.Push(resource.Event{Path: resource.Path{Type: resource.TypeDevice, ID: "dev0"}, Kind: resource.KindAdded})

		Eventually(func() uint64 {
			return ad.last().Versions[resource.TypeDevice]
		}).Should(Equal(uint64(1)))

		cancel()
		Eventually(done).Should(BeClosed())
	})

	It("exits and withdraws version records once rediscovery succeeds", func() {
		ad := &fakeAdvertiser{}
		rd := &fakeRediscoverer{}
		grain := resource.NewGrain()
		op := p2p.New(p2p.Config{Advertiser: ad, Rediscoverer: rd, RediscoverEvery: 5 * time.Millisecond})

		ctx := context.Background()
		resultC := make(chan bool, 1)
		go func() {
			rediscovered, _ := op.Run(ctx, grain)
			resultC <- rediscovered
		}()

		Eventually(ad.count).Should(BeNumerically(">=", 1))
		rd.setFound()

		Eventually(resultC).Should(Receive(BeTrue()))
		Expect(ad.last().Versions).To(BeNil())
	})
})
