package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hit2hat/rigpanel"
	"github.com/hit2hat/rigpanel/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
}

// serveCmd starts the web dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Start the rigpanel web dashboard.

The server will:
  - Load configuration from the given YAML file (or use defaults)
  - Poll the rover's metrics endpoint and render each declared element
  - Serve the dashboard, SSE and WebSocket streams on the configured port
  - Accept door and charger toggles at POST /api/actions/{door,charger}

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  rigpanel serve -c rover.yaml
  RIGPANEL_PORT=9090 rigpanel serve --device-url http://rover.local`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "override port from the config file")
	_ = settings.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"device_url", cfg.DeviceURL,
		"elements", len(cfg.Elements),
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	opts := append(config.BuildOptions(cfg), rigpanel.WithLogger(logger))
	panel, err := rigpanel.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- panel.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
