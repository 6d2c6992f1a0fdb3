package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meshcall/bridgectl/internal/bridge"
	"github.com/meshcall/bridgectl/internal/config"
)

var (
	configPath string
	logJSON    bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge control plane",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&configPath, "config", "", "path to a bridge config file")
	startCmd.Flags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := newLogger(logJSON)
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	b := bridge.New(bridge.Params{Config: cfg, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	logger.Info("bridge: started", "signalling_addr", cfg.SignallingAddr, "health_addr", cfg.HealthAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("bridge: received signal, requesting graceful shutdown", "signal", sig.String())
		b.RequestShutdown(true)
	case <-ctx.Done():
	}

	// A second signal that has already arrived by this point requests a
	// forced exit; the command does not wait for one before stopping.
	select {
	case sig := <-sigCh:
		logger.Warn("bridge: received second signal, forcing exit", "signal", sig.String())
		b.RequestShutdown(false)
	default:
	}

	b.Stop()
	return nil
}

func newLogger(json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
