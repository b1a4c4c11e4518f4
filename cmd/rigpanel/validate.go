package main

import (
	"fmt"
	"strings"

	"github.com/hit2hat/rigpanel"
	"github.com/hit2hat/rigpanel/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without contacting the device.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a rigpanel configuration file without contacting the rover.

This command parses the YAML, expands environment variables, applies
defaults and overrides, and prints the resolved endpoints. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  rigpanel validate -c rover.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// resolve URLs exactly as the panel would
	panel, err := rigpanel.New(append(config.BuildOptions(cfg), rigpanel.WithoutServer())...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	timeout := "none"
	if d := panel.RequestTimeout(); d > 0 {
		timeout = d.String()
	}

	units := make([]string, 0, len(cfg.Units))
	for _, k := range panel.Units().Keys() {
		s, _ := panel.Units().Suffix(k)
		units = append(units, k+"="+s)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", panel.Port())
	fmt.Fprintf(out, "  Poll interval: %s\n", panel.PollingInterval())
	fmt.Fprintf(out, "  Timeout:       %s\n", timeout)
	fmt.Fprintf(out, "  Metrics:       %s\n", panel.MetricsURL())
	fmt.Fprintf(out, "  Door:          %s\n", panel.DoorURL())
	fmt.Fprintf(out, "  Charger:       %s\n", panel.ChargerURL())
	fmt.Fprintf(out, "  Elements:      %s\n", strings.Join(panel.Elements(), ", "))
	fmt.Fprintf(out, "  Units:         %s\n", strings.Join(units, ", "))

	return nil
}
