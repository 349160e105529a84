package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	mutex         sync.RWMutex
	requests      int64
	exhausted     int64
	selections    map[string]int64
	failures      map[string]int64
	responseTimes map[string][]time.Duration
	healthStatus  map[string]bool
	startTime     time.Time

	promSelections *prometheus.CounterVec
	promFailures   *prometheus.CounterVec
	promDuration   *prometheus.HistogramVec
	promHealthy    *prometheus.GaugeVec
	promRequests   prometheus.Counter
	promExhausted  prometheus.Counter
}

type Snapshot struct {
	TotalRequests     int64                      `json:"total_requests"`
	ExhaustedRequests int64                      `json:"exhausted_requests"`
	Uptime            time.Duration              `json:"uptime"`
	Providers         map[string]ProviderMetrics `json:"providers"`
	Policy            string                     `json:"policy"`
}

type ProviderMetrics struct {
	Selections  int64         `json:"selections"`
	Failures    int64         `json:"failures"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	m.requests++
	m.mutex.Unlock()
	m.promRequests.Inc()
}

func (m *Metrics) IncrementExhausted() {
	m.mutex.Lock()
	m.exhausted++
	m.mutex.Unlock()
	m.promExhausted.Inc()
}

func (m *Metrics) RecordProviderSelection(provider string) {
	m.mutex.Lock()
	m.selections[provider]++
	m.mutex.Unlock()
	m.promSelections.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordProviderFailure(provider string) {
	m.mutex.Lock()
	m.failures[provider]++
	m.mutex.Unlock()
	m.promFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordResponse(provider string, duration time.Duration) {
	m.mutex.Lock()
	m.responseTimes[provider] = append(m.responseTimes[provider], duration)

	if len(m.responseTimes[provider]) > 1000 {
		m.responseTimes[provider] = m.responseTimes[provider][1:]
	}
	m.mutex.Unlock()

	m.promDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) UpdateHealthStatus(provider string, healthy bool) {
	m.mutex.Lock()
	m.healthStatus[provider] = healthy
	m.mutex.Unlock()

	v := 0.0
	if healthy {
		v = 1.0
	}
	m.promHealthy.WithLabelValues(provider).Set(v)
}

func (m *Metrics) Snapshot(policy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests:     m.requests,
		ExhaustedRequests: m.exhausted,
		Uptime:            time.Since(m.startTime),
		Providers:         make(map[string]ProviderMetrics),
		Policy:            policy,
	}

	// Collect all unique provider names
	allProviders := make(map[string]bool)
	for provider := range m.selections {
		allProviders[provider] = true
	}
	for provider := range m.failures {
		allProviders[provider] = true
	}
	for provider := range m.responseTimes {
		allProviders[provider] = true
	}
	for provider := range m.healthStatus {
		allProviders[provider] = true
	}

	for provider := range allProviders {
		pm := ProviderMetrics{
			Selections: m.selections[provider],
			Failures:   m.failures[provider],
			Healthy:    m.healthStatus[provider],
		}

		durations := m.responseTimes[provider]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			pm.AvgResponse = average(sorted)
			pm.P50Response = percentile(sorted, 0.50)
			pm.P95Response = percentile(sorted, 0.95)
			pm.P99Response = percentile(sorted, 0.99)
		}

		snap.Providers[provider] = pm
	}

	return snap
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		selections:    make(map[string]int64),
		failures:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),

		promRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "llmfallback_requests_total",
			Help: "Total completion requests received.",
		}),
		promExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "llmfallback_requests_exhausted_total",
			Help: "Requests that exhausted every configured provider.",
		}),
		promSelections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmfallback_provider_selections_total",
			Help: "Times a provider was selected for a request.",
		}, []string{"provider"}),
		promFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmfallback_provider_failures_total",
			Help: "Recorded provider call failures.",
		}, []string{"provider"}),
		promDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llmfallback_provider_request_duration_seconds",
			Help:    "Duration of successful provider calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		promHealthy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llmfallback_provider_healthy",
			Help: "Whether the provider is currently eligible for selection (1 = healthy).",
		}, []string{"provider"}),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
