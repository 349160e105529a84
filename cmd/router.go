package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vontonau/llmfallback/internal/dispatcher"
	"github.com/vontonau/llmfallback/internal/handler"
	"github.com/vontonau/llmfallback/internal/metrics"
)

func setupRouter(completionHandler *handler.CompletionHandler, disp *dispatcher.Dispatcher, metricsCollector *metrics.Collector, policy string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/completions", completionHandler.ServeHTTP)
	mux.HandleFunc("/healthz", handler.HealthHandler(disp))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/metrics/json", metricsCollector.Handler(policy))

	return mux
}
