package mdnstransport

import (
	"net"

	"github.com/grandcat/zeroconf"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TXT record parsing", func() {
	It("parses key=value TXT records into a map", func() {
		txt := parseTXT([]string{"pri=0", "api_proto=http", "api_ver=v1.3,v1.2"})
		Expect(txt).To(Equal(map[string]string{
			"pri":       "0",
			"api_proto": "http",
			"api_ver":   "v1.3,v1.2",
		}))
	})

	It("ignores malformed records without an '='", func() {
		txt := parseTXT([]string{"pri=5", "garbage"})
		Expect(txt).To(Equal(map[string]string{"pri": "5"}))
	})

	It("extracts a numeric priority", func() {
		pri, ok := parsePriority(map[string]string{"pri": "42"})
		Expect(ok).To(BeTrue())
		Expect(pri).To(Equal(uint(42)))
	})

	It("rejects a missing or non-numeric priority", func() {
		_, ok := parsePriority(map[string]string{})
		Expect(ok).To(BeFalse())

		_, ok = parsePriority(map[string]string{"pri": "not-a-number"})
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("entryToRegistry", func() {
	It("builds a registry descriptor from a service entry's TXT records", func() {
		entry := &zeroconf.ServiceEntry{
			HostName: "registry-1.local.",
			Port:     8235,
		}
		entry.Text = []string{"pri=0", "api_proto=http"}

		reg, ok := entryToRegistry(entry)
		Expect(ok).To(BeTrue())
		Expect(reg.Priority).To(Equal(uint(0)))
		Expect(reg.URI).To(Equal("http://registry-1.local:8235"))
	})

	It("prefers a resolved IPv4 address over the bare hostname", func() {
		entry := &zeroconf.ServiceEntry{
			HostName: "registry-1.local.",
			Port:     8235,
			AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
		}
		entry.Text = []string{"pri=10"}

		reg, ok := entryToRegistry(entry)
		Expect(ok).To(BeTrue())
		Expect(reg.URI).To(Equal("http://10.0.0.5:8235"))
	})

	It("rejects an entry with no parsable priority", func() {
		entry := &zeroconf.ServiceEntry{HostName: "registry-1.local.", Port: 8235}
		_, ok := entryToRegistry(entry)
		Expect(ok).To(BeFalse())
	})
})
