// Package metrics provides real-time metrics collection for the fallback router.
//
// It uses a channel-based event pipeline to asynchronously collect metrics about:
//   - Request and exhaustion counts
//   - Provider selection frequencies and recorded failures
//   - Provider response times with percentile calculations (P50, P95, P99)
//   - Provider health transitions
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the dispatch path. Events are sent via buffered channels with
// non-blocking semantics to prevent performance degradation under load.
//
// Every event is also reflected into Prometheus collectors registered at
// construction, so the same pipeline feeds both the JSON snapshot endpoint
// and the /metrics exposition.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, prometheus.DefaultRegisterer, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventResponseCompleted,
//		Provider: "openai",
//		Duration: 150 * time.Millisecond,
//	})
//
//	snapshot := collector.Snapshot("threshold")
//
// The package provides thread-safe metrics storage using sync.RWMutex and
// supports graceful shutdown with event draining to prevent data loss.
package metrics
