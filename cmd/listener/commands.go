package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pump-listener/internal/config"
	"pump-listener/internal/listener"
	"pump-listener/internal/observability"
	"pump-listener/internal/pumpportal"
)

// shutdownTimeout bounds graceful shutdown after the first signal.
const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pump-listener",
		Short:         "Stream new pump.fun token launches from PumpPortal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pump-listener %s (%s)\n", version, commit)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the feed and emit token creation events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), ".env", ".env.local")
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// run wires the listener and blocks until SIGINT or SIGTERM.
func run(cfg *config.Config) error {
	logger := observability.NewLogger("pump-listener", cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info().
		Str("version", version).
		Str("endpoint", cfg.Endpoint).
		Strs("sinks", cfg.Sinks).
		Dur("reconnect_delay", cfg.ReconnectDelay).
		Msg("Starting Pump.fun new token monitor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go handleSignals(cancel, done, logger)

	metrics := observability.NewMetrics(observability.DefaultNamespace, prometheus.NewRegistry())

	sinks, err := buildSinks(ctx, cfg, os.Stdout, logger, metrics)
	if err != nil {
		return err
	}
	defer sinks.Close()

	if cfg.MetricsAddr != "" {
		srv := observability.NewServer(observability.ServerOptions{
			Addr:    cfg.MetricsAddr,
			Metrics: metrics,
			Recent:  sinks.Recent,
			Logger:  logger,
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("Monitoring server stopped")
			}
		}()
	}

	transport := pumpportal.NewWSTransport(&pumpportal.WSConfig{
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		CloseTimeout:     pumpportal.DefaultWSConfig().CloseTimeout,
	})

	sup := listener.NewSupervisor(listener.SupervisorOptions{
		Endpoint:   cfg.Endpoint,
		Transport:  transport,
		Parser:     pumpportal.NewParser(cfg.LinkBaseURL),
		Sink:       sinks.Sink,
		RetryDelay: cfg.ReconnectDelay,
		Metrics:    metrics,
		Logger:     logger,
	})

	err = sup.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

// handleSignals cancels on the first signal and force-exits on a second
// signal or when shutdown exceeds shutdownTimeout.
func handleSignals(cancel context.CancelFunc, done <-chan struct{}, logger zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Warn().Str("signal", sig.String()).Msg("Listener stopped manually, initiating graceful shutdown")
		cancel()
	case <-done:
		return
	}

	select {
	case sig := <-sigCh:
		logger.Error().Str("signal", sig.String()).Msg("Received second signal, forcing immediate shutdown")
		os.Exit(1)
	case <-time.After(shutdownTimeout):
		logger.Error().Dur("timeout", shutdownTimeout).Msg("Graceful shutdown timed out, forcing exit")
		os.Exit(1)
	case <-done:
	}
}
