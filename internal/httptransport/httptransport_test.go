package httptransport_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amwa-nmos/node-agent/internal/httptransport"
)

var _ = Describe("Transports", func() {
	var server *httptest.Server

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("posts to /x-nmos/registration/<version>/resource", func() {
		var gotPath, gotMethod, gotBody string
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			buf := make([]byte, r.ContentLength)
			_, _ = r.Body.Read(buf)
			gotBody = string(buf)
			w.WriteHeader(201)
		}))

		tr := httptransport.New("v1.3", httptransport.Config{})
		client := tr.Registration(server.URL)
		resp, err := client.Post(context.Background(), "/resource", []byte(`{"type":"node"}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(201))
		Expect(gotMethod).To(Equal(http.MethodPost))
		Expect(gotPath).To(Equal("/x-nmos/registration/v1.3/resource"))
		Expect(gotBody).To(Equal(`{"type":"node"}`))
	})

	It("issues the heartbeat POST to /health/nodes/<id>", func() {
		var gotPath string
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(200)
		}))

		tr := httptransport.New("v1.3", httptransport.Config{})
		hb := tr.Heartbeat(server.URL)
		status, err := hb.Beat(context.Background(), "self-id-123")

		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(200))
		Expect(gotPath).To(Equal("/x-nmos/registration/v1.3/health/nodes/self-id-123"))
	})

	It("maps a connection failure to a transport error", func() {
		tr := httptransport.New("v1.3", httptransport.Config{})
		client := tr.Registration("http://127.0.0.1:1")
		_, err := client.Post(context.Background(), "/resource", nil)
		Expect(err).To(HaveOccurred())
	})

	It("propagates DELETE responses", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodDelete))
			Expect(r.URL.Path).To(Equal("/x-nmos/registration/v1.3/resource/nodes/abc"))
			w.WriteHeader(204)
		}))

		tr := httptransport.New("v1.3", httptransport.Config{})
		client := tr.Registration(server.URL)
		resp, err := client.Delete(context.Background(), "/resource/nodes/abc")

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(204))
	})
})
