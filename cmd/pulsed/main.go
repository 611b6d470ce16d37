// Command pulsed runs a pulse client behind an HTTP API.
//
// Usage:
//
//	pulsed --config pulse.yaml --addr :8080
//
// The config file carries the client settings read by pulse.FromConfig plus
// an "integrations" section keyed by integration name:
//
//	tag: edge
//	flush_schedule: "@every 30s"
//	integrations:
//	  Logs: {level: info}
//	  Prometheus: {namespace: pulse}
//	  Redis: {url: "redis://localhost:6379/0"}
//
// Only integrations named in the file are created. When a Prometheus
// integration is configured its registry is served at /metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/httpapi"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/cesink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/kafkasink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/logsink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/natssink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/promsink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/redissink"
	"github.com/randalmurphal/pulse/pkg/pulse/integrations/statsdsink"
	"github.com/randalmurphal/pulse/pkg/pulse/settings"
)

// factories lists every integration pulsed can create.
func factories() []integration.Factory {
	return []integration.Factory{
		logsink.Factory(),
		promsink.Factory(),
		statsdsink.Factory(),
		redissink.Factory(),
		natssink.Factory(),
		kafkasink.Factory(),
		cesink.Factory(),
	}
}

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, addr string, watch bool) error {
	cfg, err := config.FromFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := append(pulse.FromConfig(cfg),
		pulse.WithLogger(logger),
		pulse.WithSettings(settings.FromConfig(cfg)),
		pulse.WithFactories(factories()...),
	)
	client, err := pulse.New(opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := client.Shutdown(shutdownCtx); err != nil {
			logger.Warn("client shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	if watch {
		if err := client.WatchSettings(ctx, configPath); err != nil {
			return fmt.Errorf("watch settings: %w", err)
		}
	}

	var apiOpts []httpapi.Option
	apiOpts = append(apiOpts, httpapi.WithLogger(logger))
	if in, ok := client.Dispatcher().Integration(promsink.Key); ok {
		if sink, ok := in.(*promsink.Sink); ok {
			apiOpts = append(apiOpts, httpapi.WithMount("/metrics", sink.Handler()))
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(client, apiOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pulsed listening",
			slog.String("addr", addr),
			slog.Any("integrations", client.IntegrationKeys()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
