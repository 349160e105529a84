package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vontonau/llmfallback/internal/provider"
)

var _ = Describe("HTTPClient", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"completion": "hello back"}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *provider.HTTPClient {
		u, err := url.Parse(server.URL)
		Expect(err).NotTo(HaveOccurred())
		return provider.NewHTTPClient(u, "gpt-test", 2*time.Second)
	}

	It("should post the model, prompt and params", func() {
		var got map[string]any
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
			w.Write([]byte(`{}`))
		}

		client := newClient()
		_, err := client.CallContext(context.Background(), "openai", "Test prompt", map[string]any{"max_tokens": 10.0})
		Expect(err).NotTo(HaveOccurred())

		Expect(got).To(HaveKeyWithValue("model", "gpt-test"))
		Expect(got).To(HaveKeyWithValue("prompt", "Test prompt"))
		Expect(got).To(HaveKeyWithValue("params", HaveKeyWithValue("max_tokens", 10.0)))
	})

	It("should return the decoded response body", func() {
		client := newClient()
		response, err := client.Call("openai", "Test prompt", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(response).To(HaveKeyWithValue("completion", "hello back"))
	})

	It("should report non-2xx statuses as errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}

		client := newClient()
		_, err := client.Call("openai", "Test prompt", nil)
		Expect(err).To(MatchError(ContainSubstring("unexpected status 503")))
	})

	It("should report malformed response bodies as errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}

		client := newClient()
		_, err := client.Call("openai", "Test prompt", nil)
		Expect(err).To(MatchError(ContainSubstring("decode response")))
	})

	It("should honor context cancellation", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			w.Write([]byte(`{}`))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		client := newClient()
		_, err := client.CallContext(ctx, "openai", "Test prompt", nil)
		Expect(err).To(HaveOccurred())
	})

	It("should report unreachable endpoints as errors", func() {
		u, err := url.Parse("http://127.0.0.1:1")
		Expect(err).NotTo(HaveOccurred())
		client := provider.NewHTTPClient(u, "gpt-test", time.Second)

		_, err = client.Call("openai", "Test prompt", nil)
		Expect(err).To(HaveOccurred())
	})
})
