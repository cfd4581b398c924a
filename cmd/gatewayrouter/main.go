// Command gatewayrouter runs the smart router as a standalone HTTP
// service (SPEC_FULL.md §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/normanhq/gatewayrouter/internal/api"
	"github.com/normanhq/gatewayrouter/internal/config"
	"github.com/normanhq/gatewayrouter/internal/observability"
	"github.com/normanhq/gatewayrouter/pkg/gateway"

	"log/slog"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gatewayrouter failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	rawLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(rawLogger)

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      slog.LevelInfo,
		JSONFormat: true,
	}, observability.NewRedactor())
	logger.RedactedInfo("starting gatewayrouter")

	tracerProvider := observability.InitTracing(observability.TracingConfig{Enabled: true})
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	cfgManager, err := config.NewManager(*configPath, rawLogger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer func() { _ = cfgManager.Close() }()

	gw, err := buildGateway(cfgManager.Get())
	if err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}

	cfgManager.OnChange(func(cfg *config.Config) {
		if err := gw.SetRouterConfig(cfg.Router.ToTypes()); err != nil {
			logger.RedactedError("failed to apply reloaded router config, keeping previous policy", "error", err)
		}
	})

	if err := cfgManager.Watch(context.Background()); err != nil {
		logger.RedactedWarn("config hot-reload watcher unavailable, continuing without it", "error", err)
	}

	mux := http.NewServeMux()
	api.Routes(mux, api.NewHandler(gw, logger, tracerProvider.Tracer()))

	cfg := cfgManager.Get()
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	var handler http.Handler = mux
	handler = observability.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.RedactedInfo("listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.RedactedInfo("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.RedactedError("server shutdown error", "error", err)
	}

	logger.RedactedInfo("stopped")
	return nil
}

// buildGateway wires the four core components from the loaded
// configuration's model catalogue, router policy, and pricing overrides.
func buildGateway(cfg *config.Config) (*gateway.Gateway, error) {
	opts := []gateway.Option{
		gateway.WithCapabilities(cfg.Capabilities()),
		gateway.WithRouterConfig(cfg.Router.ToTypes()),
	}
	if table := cfg.PricingTable(); table != nil {
		opts = append(opts, gateway.WithPricingTable(table))
	}
	return gateway.New(opts...)
}
