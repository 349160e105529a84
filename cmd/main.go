package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vontonau/llmfallback/config"
	"github.com/vontonau/llmfallback/internal/dispatcher"
	"github.com/vontonau/llmfallback/internal/handler"
	"github.com/vontonau/llmfallback/internal/health"
	"github.com/vontonau/llmfallback/internal/httpserver"
	"github.com/vontonau/llmfallback/internal/metrics"
	"github.com/vontonau/llmfallback/internal/provider"
	"github.com/vontonau/llmfallback/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := initializeProviders(cfg, log)
	if err != nil {
		log.Error("Failed to initialize providers", slog.Any("err", err))
		os.Exit(1)
	}

	tracker := health.NewTracker(cfg.FailureWindowDuration(), cfg.Health.FailureThreshold)

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, prometheus.DefaultRegisterer, log)
	collector.Start(ctx)

	disp, err := dispatcher.New(providers, tracker, log, collector)
	if err != nil {
		log.Error("Failed to create dispatcher", slog.Any("err", err))
		os.Exit(1)
	}

	pruneInterval, err := time.ParseDuration(cfg.Health.PruneInterval)
	if err != nil {
		log.Error("Failed to parse prune interval", slog.Any("err", err))
		os.Exit(1)
	}

	go health.Watch(ctx, tracker, disp.Providers(), pruneInterval, log,
		func(name string, healthy bool) {
			collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventHealthChanged,
				Timestamp: time.Now(),
				Provider:  name,
				Healthy:   healthy,
			})
		})

	completionHandler := handler.NewCompletionHandler(log, disp)

	mux := setupRouter(completionHandler, disp, collector, policyName(cfg))

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Starting fallback router",
		slog.String("address", cfg.Server.Address),
		slog.String("policy", policyName(cfg)),
		slog.Int("providers", len(providers)))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting fallback router", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeProviders(cfg *config.Config, log *slog.Logger) ([]*provider.Provider, error) {
	var providers []*provider.Provider

	for _, pc := range cfg.Providers {
		u, err := url.Parse(pc.URL)
		if err != nil {
			log.Error("Failed to parse provider URL",
				slog.String("provider", pc.Name),
				slog.String("url", pc.URL),
				slog.String("error", err.Error()))
			continue
		}

		var timeout time.Duration
		if pc.Timeout != "" {
			timeout, err = time.ParseDuration(pc.Timeout)
			if err != nil {
				return nil, err
			}
		}

		client := provider.NewHTTPClient(u, pc.Model, timeout)
		providers = append(providers, provider.NewContext(pc.Name, client.CallContext))

		log.Info("Registered provider",
			slog.String("provider", pc.Name),
			slog.String("model", pc.Model),
			slog.String("url", pc.URL))
	}

	if len(providers) == 0 {
		return nil, os.ErrInvalid
	}

	return providers, nil
}

func policyName(cfg *config.Config) string {
	if cfg.Health.FailureThreshold >= 1 {
		return "threshold"
	}
	return "single-timestamp"
}
