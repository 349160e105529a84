package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventProviderSelected  EventType = "provider_selected"
	EventProviderFailure   EventType = "provider_failure"
	EventResponseCompleted EventType = "response_completed"
	EventRequestExhausted  EventType = "request_exhausted"
	EventHealthChanged     EventType = "health_changed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Provider  string
	Duration  time.Duration
	Healthy   bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, reg prometheus.Registerer, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(reg),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit sends an event without blocking; under backpressure the event is
// dropped rather than stalling the request path.
func (c *Collector) Emit(event MetricEvent) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests()

	case EventProviderSelected:
		c.metrics.RecordProviderSelection(event.Provider)

	case EventProviderFailure:
		c.metrics.RecordProviderFailure(event.Provider)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Provider, event.Duration)

	case EventRequestExhausted:
		c.metrics.IncrementExhausted()

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Provider, event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(policy string) Snapshot {
	return c.metrics.Snapshot(policy)
}
