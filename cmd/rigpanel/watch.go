package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hit2hat/rigpanel"
	"github.com/hit2hat/rigpanel/config"
	"github.com/hit2hat/rigpanel/internal/tui"
	"github.com/spf13/cobra"
)

// cycleBuffer holds poll outcomes the terminal has not drawn yet.
const cycleBuffer = 16

// watchCmd runs the panel headless and shows it in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the panel in the terminal",
	Long: `Poll the rover and show its metrics in an interactive terminal panel.

No HTTP server is started. Logs would corrupt the screen, so they are
discarded unless --log-file is given.

Keys:
  d       toggle door
  c       toggle charger
  q       quit

Example:
  rigpanel watch -c rover.yaml --log-file rigpanel.log`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("log-file", "", "write JSON logs to this file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logOut io.Writer = io.Discard
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel()}))

	cycles := make(chan tui.CycleMsg, cycleBuffer)
	opts := append(config.BuildOptions(cfg),
		rigpanel.WithoutServer(),
		rigpanel.WithLogger(logger),
		rigpanel.WithCycleCallback(func(r rigpanel.CycleResult) {
			select {
			case cycles <- toCycleMsg(r):
			default:
			}
		}),
	)
	panel, err := rigpanel.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- panel.Start(ctx)
	}()

	err = tui.Run(ctx, tui.Config{
		Title:   cfg.Title,
		Display: panel.Display(),
		Cycles:  cycles,
		Actions: tui.Actions{
			ToggleDoor:    func() { panel.ToggleDoor(ctx) },
			ToggleCharger: func() { panel.ToggleCharger(ctx) },
		},
		Cancel: cancel,
	})
	cancel()

	if startErr := <-done; startErr != nil && err == nil {
		err = startErr
	}
	return err
}

// toCycleMsg reduces a cycle result to what the footer shows.
func toCycleMsg(r rigpanel.CycleResult) tui.CycleMsg {
	msg := tui.CycleMsg{
		Seq:        r.Seq,
		At:         r.StartedAt,
		Latency:    r.Latency,
		StatusCode: r.StatusCode,
		Updated:    len(r.Updated),
		Skipped:    len(r.Skipped),
	}
	if r.Err != nil {
		msg.Err = r.Err.Error()
	}
	return msg
}
