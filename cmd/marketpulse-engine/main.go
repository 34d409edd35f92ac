package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"marketpulse/internal/clock"
	"marketpulse/internal/config"
	"marketpulse/internal/engine"
	"marketpulse/internal/feed"
	"marketpulse/internal/health"
	"marketpulse/internal/observability"
)

func main() {
	var configPath string
	var httpPort string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (JSON)")
	flag.StringVar(&httpPort, "port", "8090", "HTTP server port for health and metrics")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	registry := observability.NewRegistry()
	metrics := observability.NewEngineMetrics(registry)

	eng := engine.New(cfg, clock.System{}, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runInfo := observability.RunInfo{RunID: observability.NewRunID()}
	ctx = observability.WithRunInfo(ctx, runInfo)

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}
	observability.LogEvent(ctx, "info", "engine_started", map[string]any{
		"run_id":     runInfo.RunID,
		"partitions": cfg.Partitions,
	})

	sim := feed.New(cfg.Simulation, eng)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth(eng))
	mux.HandleFunc("/metrics", handlePrometheusMetrics(registry))

	server := &http.Server{
		Addr:    ":" + httpPort,
		Handler: mux,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sim.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		observability.LogEvent(ctx, "info", "shutdown_signal_received", nil)
	case <-gCtx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := eng.Stop(stopCtx); err != nil {
		log.Printf("engine stop error: %v", err)
	}

	if err := g.Wait(); err != nil {
		log.Printf("server group error: %v", err)
	}

	observability.LogEvent(context.Background(), "info", "engine_stopped", nil)
}

func handleHealth(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := health.Check(r.Context(), eng)

		status := http.StatusOK
		if snap.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(snap)
	}
}

func handlePrometheusMetrics(registry *observability.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		registry.WriteText(w)
	}
}
