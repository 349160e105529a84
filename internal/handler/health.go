package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vontonau/llmfallback/internal/dispatcher"
	"github.com/vontonau/llmfallback/internal/health"
)

// HealthHandler reports per-provider health from the shared tracker.
func HealthHandler(d *dispatcher.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers := make(map[string]health.Status)
		anyHealthy := false

		for _, name := range d.Providers() {
			status := d.Tracker().Stats(name)
			providers[name] = status
			if status.Healthy {
				anyHealthy = true
			}
		}

		status := http.StatusOK
		if !anyHealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(providers)
	}
}
