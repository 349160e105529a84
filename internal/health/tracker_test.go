package health_test

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vontonau/llmfallback/internal/health"
)

func TestHealth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Health Suite")
}

var _ = Describe("Tracker", func() {
	var (
		tracker *health.Tracker
		now     time.Time
	)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	advance := func(d time.Duration) {
		now = now.Add(d)
	}

	Describe("single-timestamp mode", func() {
		BeforeEach(func() {
			now = base
			tracker = health.NewTracker(60*time.Second, 0)
			tracker.SetNowFunc(func() time.Time { return now })
		})

		It("should report unknown providers as healthy", func() {
			Expect(tracker.IsHealthy("never-seen")).To(BeTrue())
		})

		It("should mark a provider unhealthy immediately after a failure", func() {
			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeFalse())
		})

		It("should keep the provider unhealthy until the window elapses", func() {
			tracker.RecordFailure("openai")

			advance(59 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeFalse())

			advance(1 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})

		It("should restart the window on every failure", func() {
			tracker.RecordFailure("openai")
			advance(45 * time.Second)
			tracker.RecordFailure("openai")

			advance(45 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeFalse())

			advance(15 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})

		It("should track providers independently", func() {
			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeFalse())
			Expect(tracker.IsHealthy("gemini")).To(BeTrue())
		})

		It("should not mutate state on reads", func() {
			tracker.RecordFailure("openai")
			for i := 0; i < 10; i++ {
				tracker.IsHealthy("openai")
			}
			advance(60 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})
	})

	Describe("threshold mode", func() {
		BeforeEach(func() {
			now = base
			tracker = health.NewTracker(60*time.Second, 3)
			tracker.SetNowFunc(func() time.Time { return now })
		})

		It("should stay healthy below the threshold", func() {
			tracker.RecordFailure("openai")
			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})

		It("should become unhealthy at the threshold", func() {
			tracker.RecordFailure("openai")
			tracker.RecordFailure("openai")
			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeFalse())
		})

		It("should recover once failures age out of the window", func() {
			tracker.RecordFailure("openai")
			advance(10 * time.Second)
			tracker.RecordFailure("openai")
			advance(10 * time.Second)
			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeFalse())

			// First failure leaves the window at base+60s; two remain.
			advance(41 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})

		It("should behave like single-timestamp mode with threshold 1", func() {
			tracker = health.NewTracker(60*time.Second, 1)
			tracker.SetNowFunc(func() time.Time { return now })

			tracker.RecordFailure("openai")
			Expect(tracker.IsHealthy("openai")).To(BeFalse())

			advance(60 * time.Second)
			Expect(tracker.IsHealthy("openai")).To(BeTrue())
		})

		It("should prune aged-out entries on write", func() {
			for i := 0; i < 3; i++ {
				tracker.RecordFailure("openai")
			}
			advance(61 * time.Second)
			tracker.RecordFailure("openai")

			Expect(tracker.Stats("openai").RecentFailures).To(Equal(1))
		})
	})

	Describe("Stats", func() {
		BeforeEach(func() {
			now = base
			tracker = health.NewTracker(60*time.Second, 3)
			tracker.SetNowFunc(func() time.Time { return now })
		})

		It("should report a clean status for unknown providers", func() {
			status := tracker.Stats("never-seen")
			Expect(status.Healthy).To(BeTrue())
			Expect(status.RecentFailures).To(BeZero())
			Expect(status.LastFailure).To(BeNil())
		})

		It("should expose last failure time and recent count", func() {
			tracker.RecordFailure("openai")
			advance(10 * time.Second)
			tracker.RecordFailure("openai")

			status := tracker.Stats("openai")
			Expect(status.Healthy).To(BeTrue())
			Expect(status.RecentFailures).To(Equal(2))
			Expect(status.LastFailure).NotTo(BeNil())
			Expect(*status.LastFailure).To(Equal(base.Add(10 * time.Second)))
		})
	})

	Describe("Prune", func() {
		BeforeEach(func() {
			now = base
			tracker = health.NewTracker(60*time.Second, 3)
			tracker.SetNowFunc(func() time.Time { return now })
		})

		It("should discard entries outside the window", func() {
			tracker.RecordFailure("openai")
			tracker.RecordFailure("openai")
			tracker.RecordFailure("openai")

			advance(61 * time.Second)
			tracker.Prune()

			status := tracker.Stats("openai")
			Expect(status.Healthy).To(BeTrue())
			Expect(status.RecentFailures).To(BeZero())
		})

		It("should keep entries still inside the window", func() {
			tracker.RecordFailure("openai")
			advance(30 * time.Second)
			tracker.RecordFailure("openai")

			advance(31 * time.Second)
			tracker.Prune()

			Expect(tracker.Stats("openai").RecentFailures).To(Equal(1))
		})
	})

	Describe("concurrent access", func() {
		It("should survive concurrent failures and reads", func() {
			tracker := health.NewTracker(time.Minute, 5)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						tracker.RecordFailure("openai")
						tracker.IsHealthy("openai")
						tracker.IsHealthy("gemini")
					}
				}()
			}
			wg.Wait()

			Expect(tracker.IsHealthy("openai")).To(BeFalse())
			Expect(tracker.IsHealthy("gemini")).To(BeTrue())
		})
	})
})
