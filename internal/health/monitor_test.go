package health_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vontonau/llmfallback/internal/health"
)

var _ = Describe("Watch", func() {
	type transition struct {
		name    string
		healthy bool
	}

	var (
		tracker     *health.Tracker
		ctx         context.Context
		cancel      context.CancelFunc
		transitions chan transition
		log         *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
		tracker = health.NewTracker(200*time.Millisecond, 0)
		ctx, cancel = context.WithCancel(context.Background())
		transitions = make(chan transition, 10)

		go health.Watch(ctx, tracker, []string{"openai", "gemini"}, 10*time.Millisecond, log,
			func(name string, healthy bool) {
				transitions <- transition{name: name, healthy: healthy}
			})
	})

	AfterEach(func() {
		cancel()
	})

	It("should report a provider going down", func() {
		tracker.RecordFailure("openai")

		Eventually(transitions, time.Second).Should(Receive(Equal(transition{name: "openai", healthy: false})))
	})

	It("should report a provider coming back after the window", func() {
		tracker.RecordFailure("openai")

		Eventually(transitions, time.Second).Should(Receive(Equal(transition{name: "openai", healthy: false})))
		Eventually(transitions, time.Second).Should(Receive(Equal(transition{name: "openai", healthy: true})))
	})

	It("should not report providers that never change", func() {
		tracker.RecordFailure("openai")

		Eventually(transitions, time.Second).Should(Receive())
		Consistently(transitions, 100*time.Millisecond).ShouldNot(Receive(Equal(transition{name: "gemini", healthy: false})))
	})

	It("should stop when the context is cancelled", func() {
		cancel()

		// Failures after cancellation never produce transitions.
		time.Sleep(30 * time.Millisecond)
		tracker.RecordFailure("openai")
		Consistently(transitions, 100*time.Millisecond).ShouldNot(Receive())
	})
})
