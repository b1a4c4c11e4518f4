package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hit2hat/rigpanel"
	"github.com/hit2hat/rigpanel/config"
	"github.com/spf13/cobra"
)

// toggleCmd sends one device command and waits for the reply.
var toggleCmd = &cobra.Command{
	Use:       "toggle {door|charger}",
	Short:     "Toggle the door or the charger",
	ValidArgs: []string{rigpanel.ActionDoor, rigpanel.ActionCharger},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Send a single toggle command to the rover and print the reply status.

Any HTTP response counts as delivered; the command fails only when the
rover cannot be reached within --timeout.

Example:
  rigpanel toggle door -c rover.yaml
  rigpanel toggle charger --timeout 2s`,
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)

	toggleCmd.Flags().Duration("timeout", 5*time.Second, "how long to wait for the rover")
}

func runToggle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := append(config.BuildOptions(cfg),
		rigpanel.WithoutServer(),
		rigpanel.WithLogger(newLogger()),
	)
	panel, err := rigpanel.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	status, err := panel.Send(ctx, args[0])
	if err != nil {
		return fmt.Errorf("%s toggle failed: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s toggled (HTTP %d)\n", args[0], status)
	return nil
}
