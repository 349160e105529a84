package health

import (
	"context"
	"log/slog"
	"time"
)

// Watch periodically prunes aged-out failure entries and logs providers
// changing health state. onChange, if non-nil, is invoked with the provider
// name and its new state whenever a transition is observed.
func Watch(
	ctx context.Context,
	tracker *Tracker,
	providers []string,
	interval time.Duration,
	logger *slog.Logger,
	onChange func(name string, healthy bool),
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Everything starts healthy.
	previous := make(map[string]bool, len(providers))
	for _, name := range providers {
		previous[name] = true
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health monitor stopped")
			return

		case <-ticker.C:
			tracker.Prune()

			for _, name := range providers {
				healthy := tracker.IsHealthy(name)
				if healthy == previous[name] {
					continue
				}
				previous[name] = healthy

				if healthy {
					logger.Info("Provider is back up",
						slog.String("provider", name))
				} else {
					logger.Warn("Provider is down",
						slog.String("provider", name))
				}

				if onChange != nil {
					onChange(name, healthy)
				}
			}
		}
	}
}
