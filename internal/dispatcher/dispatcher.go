package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vontonau/llmfallback/internal/health"
	"github.com/vontonau/llmfallback/internal/metrics"
	"github.com/vontonau/llmfallback/internal/provider"
)

var (
	// ErrAllProvidersUnavailable is returned when every provider was either
	// skipped as unhealthy or attempted and failed.
	ErrAllProvidersUnavailable = errors.New("all providers unavailable")

	// ErrCapabilityMismatch is returned when a provider's call capability
	// does not match the dispatch entry point used. It is a configuration
	// error: it does not count as a provider failure and stops the dispatch.
	ErrCapabilityMismatch = errors.New("provider capability does not match dispatch mode")
)

// Dispatcher routes completion requests to the first healthy provider in
// priority order, falling through to the next on failure.
type Dispatcher struct {
	providers []*provider.Provider
	tracker   *health.Tracker
	logger    *slog.Logger
	collector *metrics.Collector
}

// New creates a Dispatcher over the given providers in priority order.
// The list must be non-empty and provider names must be unique, since the
// name is the key under which failures are tracked. collector may be nil.
func New(providers []*provider.Provider, tracker *health.Tracker, logger *slog.Logger, collector *metrics.Collector) (*Dispatcher, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if seen[p.Name()] {
			return nil, fmt.Errorf("duplicate provider name %q", p.Name())
		}
		seen[p.Name()] = true
	}

	return &Dispatcher{
		providers: providers,
		tracker:   tracker,
		logger:    logger,
		collector: collector,
	}, nil
}

// Dispatch routes the prompt through blocking providers. params are
// forwarded verbatim to whichever provider ends up serving the request.
func (d *Dispatcher) Dispatch(prompt string, params map[string]any) (provider.Response, error) {
	return d.dispatch(provider.CapabilityBlocking, func(p *provider.Provider) (provider.Response, error) {
		return p.Call(prompt, params)
	})
}

// DispatchContext routes the prompt through context-aware providers. The
// selection and fallback algorithm is identical to Dispatch; only the way
// the provider call is awaited differs.
func (d *Dispatcher) DispatchContext(ctx context.Context, prompt string, params map[string]any) (provider.Response, error) {
	return d.dispatch(provider.CapabilityContext, func(p *provider.Provider) (provider.Response, error) {
		return p.CallContext(ctx, prompt, params)
	})
}

// dispatch walks the providers in priority order: skip unhealthy ones
// without calling, invoke the first healthy one, record any failure and
// move on. The first success wins; exhausting the list is an error.
func (d *Dispatcher) dispatch(mode provider.Capability, invoke func(*provider.Provider) (provider.Response, error)) (provider.Response, error) {
	requestID := uuid.NewString()

	d.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
	})

	for _, p := range d.providers {
		if !d.tracker.IsHealthy(p.Name()) {
			d.logger.Debug("Skipping unhealthy provider",
				slog.String("request_id", requestID),
				slog.String("provider", p.Name()))
			continue
		}

		if p.Capability() != mode {
			return nil, fmt.Errorf("%w: provider %q is %s, dispatch mode is %s",
				ErrCapabilityMismatch, p.Name(), p.Capability(), mode)
		}

		d.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventProviderSelected,
			Timestamp: time.Now(),
			Provider:  p.Name(),
		})

		start := time.Now()
		response, err := invoke(p)
		if err != nil {
			// The error itself is opaque: any failure counts the same.
			d.tracker.RecordFailure(p.Name())

			d.logger.Warn("Provider call failed",
				slog.String("request_id", requestID),
				slog.String("provider", p.Name()),
				slog.Any("err", err))

			d.emitEvent(metrics.MetricEvent{
				Type:      metrics.EventProviderFailure,
				Timestamp: time.Now(),
				Provider:  p.Name(),
			})
			continue
		}

		d.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventResponseCompleted,
			Timestamp: time.Now(),
			Provider:  p.Name(),
			Duration:  time.Since(start),
		})

		return response, nil
	}

	d.logger.Warn("No provider could serve the request",
		slog.String("request_id", requestID))

	d.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventRequestExhausted,
		Timestamp: time.Now(),
	})

	return nil, ErrAllProvidersUnavailable
}

// Providers returns the configured provider names in priority order.
func (d *Dispatcher) Providers() []string {
	names := make([]string, len(d.providers))
	for i, p := range d.providers {
		names[i] = p.Name()
	}
	return names
}

// Tracker exposes the health tracker shared by all dispatches.
func (d *Dispatcher) Tracker() *health.Tracker {
	return d.tracker
}

func (d *Dispatcher) emitEvent(event metrics.MetricEvent) {
	if d.collector == nil {
		return
	}
	d.collector.Emit(event)
}
