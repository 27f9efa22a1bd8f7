package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/agentops/internal/config"
	"github.com/nainya/agentops/internal/logger"
	"github.com/nainya/agentops/internal/metrics"
	"github.com/nainya/agentops/internal/security"
	"github.com/nainya/agentops/internal/server"
	"github.com/nainya/agentops/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC API with metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logger.InitGlobalLogger(logger.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	policySource := cfg.PolicyDir
	if policySource == "" {
		policySource = "builtin"
	}
	log.LogServerStart(cfg.HTTPPort, cfg.GRPCPort, policySource)

	// The corpus is complete before any listener opens
	c, skipped, err := loadCorpus(cfg, log)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	recOpts := []telemetry.Option{
		telemetry.WithLogger(log.Zerolog()),
		telemetry.WithHook(func(e telemetry.Event) { m.RecordEvent(e.Type) }),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.CSVPath != "" {
		recOpts = append(recOpts, telemetry.WithCSV(cfg.Telemetry.CSVPath))
	}

	srv := server.NewServer(newEngine(c, cfg), server.Options{
		Verifier:       security.NewVerifier(cfg.Auth.DemoToken, cfg.Auth.JWTSecret),
		Recorder:       telemetry.New(recOpts...),
		Metrics:        m,
		Logger:         log,
		FeatureEnabled: cfg.Features.AgentOps,
		SkippedSources: skipped,
	})
	if !cfg.Features.AgentOps {
		log.Warn().Msg("AgentOps feature disabled; query endpoints return 501")
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}
	grpcServer, health := server.NewGRPCServer(srv)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      srv.HTTPHandler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var obs *server.ObservabilityServer
	if cfg.MetricsPort > 0 {
		obs = server.NewObservabilityServer(cfg.MetricsPort, m, srv.Ready, log)
	}

	uptimeCtx, stopUptime := context.WithCancel(context.Background())
	defer stopUptime()
	go m.RunUptime(uptimeCtx, 10*time.Second)

	errCh := make(chan error, 3)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()
	if obs != nil {
		go func() {
			if err := obs.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	log.LogServerReady(cfg.HTTPPort, cfg.GRPCPort)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("Server error")
	}

	log.LogServerShutdown()
	srv.SetReady(false)
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Observability shutdown incomplete")
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	return serveErr
}
