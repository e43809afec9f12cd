package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sguter90/soilmaestro/pkg/config"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"github.com/sguter90/soilmaestro/pkg/proxy"
	"github.com/sguter90/soilmaestro/pkg/rotator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const janitorInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SoilMaestro HTTP server",
	Long: `Start the HTTP API. Each browser session owns one analysis form; a
second submission while one is in flight is rejected with 409.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	apiKey, err := resolveAPIKey(cfg, true)
	if err != nil {
		logger.Warn("narrative service disabled, reports will carry the label only", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := orchestrator.NewMetrics(registry)

	sessions := NewSessionStore(
		orchestratorFactory(cfg, apiKey, logger, orchestrator.WithMetrics(metrics)),
		cfg.Server.SessionTTL,
		logger,
	)
	registry.MustRegister(sessions.Collector())

	rot := rotator.New(rotator.WithPeriod(cfg.Rotator.Period), rotator.WithLogger(logger))

	p, err := newProxy(cfg, logger)
	if err != nil {
		return err
	}

	routeManager := NewRouteManager(sessions, rot, p, registry, cfg.Schema, cfg.Server.AllowedOrigins, logger)
	routeManager.Setup()

	server := &http.Server{
		Handler:      routeManager.Handler(),
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	rot.Start()
	g.Go(func() error {
		<-ctx.Done()
		rot.Stop()
		return nil
	})

	g.Go(func() error {
		return sessions.Run(ctx, janitorInterval)
	})

	g.Go(func() error {
		logger.Info("starting SoilMaestro server",
			zap.String("addr", server.Addr),
			zap.String("schema", cfg.Schema),
			zap.Bool("proxy", p != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newProxy returns nil when the proxy is disabled
func newProxy(cfg *config.Config, logger *zap.Logger) (*proxy.Proxy, error) {
	if !cfg.Proxy.Enabled {
		return nil, nil
	}

	issuer, err := proxy.NewIssuer(cfg.Proxy.JWTSecret, cfg.Proxy.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure proxy: %w", err)
	}

	// the upstream always uses the provider key, never a proxy token
	upstream := newNarrativeClient(cfg, cfg.Narrative.APIKey, logger)
	return proxy.New(issuer, cfg.Proxy.PassphraseHash, upstream, logger), nil
}
