package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vontonau/llmfallback/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	})

	Describe("request counters", func() {
		It("should count requests and exhaustions", func() {
			m.IncrementRequests()
			m.IncrementRequests()
			m.IncrementExhausted()

			snap := m.Snapshot("single-timestamp")
			Expect(snap.TotalRequests).To(Equal(int64(2)))
			Expect(snap.ExhaustedRequests).To(Equal(int64(1)))
		})
	})

	Describe("per-provider counters", func() {
		It("should track selections and failures separately per provider", func() {
			m.RecordProviderSelection("openai")
			m.RecordProviderSelection("openai")
			m.RecordProviderSelection("gemini")
			m.RecordProviderFailure("openai")

			snap := m.Snapshot("threshold")
			Expect(snap.Providers["openai"].Selections).To(Equal(int64(2)))
			Expect(snap.Providers["openai"].Failures).To(Equal(int64(1)))
			Expect(snap.Providers["gemini"].Selections).To(Equal(int64(1)))
			Expect(snap.Providers["gemini"].Failures).To(BeZero())
		})
	})

	Describe("health status", func() {
		It("should reflect the latest health update", func() {
			m.UpdateHealthStatus("openai", false)
			Expect(m.Snapshot("threshold").Providers["openai"].Healthy).To(BeFalse())

			m.UpdateHealthStatus("openai", true)
			Expect(m.Snapshot("threshold").Providers["openai"].Healthy).To(BeTrue())
		})
	})

	Describe("response times", func() {
		It("should compute average and percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse("openai", time.Duration(i)*time.Millisecond)
			}

			pm := m.Snapshot("threshold").Providers["openai"]
			Expect(pm.AvgResponse).To(Equal(50500 * time.Microsecond))
			Expect(pm.P50Response).To(Equal(51 * time.Millisecond))
			Expect(pm.P95Response).To(Equal(96 * time.Millisecond))
			Expect(pm.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should cap the stored sample window", func() {
			for i := 0; i < 1500; i++ {
				m.RecordResponse("openai", time.Millisecond)
			}

			pm := m.Snapshot("threshold").Providers["openai"]
			Expect(pm.AvgResponse).To(Equal(time.Millisecond))
		})
	})

	Describe("Snapshot", func() {
		It("should carry the policy name and uptime", func() {
			snap := m.Snapshot("threshold")
			Expect(snap.Policy).To(Equal("threshold"))
			Expect(snap.Uptime).To(BeNumerically(">=", 0))
		})

		It("should include providers known only from health updates", func() {
			m.UpdateHealthStatus("gemini", true)
			Expect(m.Snapshot("threshold").Providers).To(HaveKey("gemini"))
		})
	})
})
