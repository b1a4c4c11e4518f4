// Package main is the entry point for the rigpanel CLI.
//
// rigpanel can be embedded as a library (SDK) or run as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	rigpanel serve -c rover.yaml       # Web dashboard
//	rigpanel watch -c rover.yaml       # Terminal dashboard
//	rigpanel toggle door -c rover.yaml # One-shot device command
//	rigpanel validate -c rover.yaml    # Validate configuration
//	rigpanel version                   # Show version info
//
// Every flag can also be set through a RIGPANEL_ environment variable, for
// example RIGPANEL_CONFIG or RIGPANEL_DEVICE_URL.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hit2hat/rigpanel/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// settings merges persistent flags with RIGPANEL_* environment variables.
var settings = newSettings()

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RIGPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "rigpanel",
	Short: "Control panel for the rover",
	Long: `rigpanel is a live control panel for the rover.

It polls the rover's metrics endpoint once per second, shows each metric
with its unit, and sends the door and charger toggle commands.

Quick start:
  1. Join the rover's Wi-Fi access point (192.168.4.1)
  2. Run: rigpanel serve
  3. Open http://localhost:8080 in your browser

Example config:
  title: Rover
  device_url: http://192.168.4.1
  poll_interval: 1s
  elements: [temperature, humidity, fuel]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this rigpanel binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rigpanel %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file (defaults apply when omitted)")
	flags.String("device-url", "", "override device_url from the config file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	_ = settings.BindPFlag("config", flags.Lookup("config"))
	_ = settings.BindPFlag("device-url", flags.Lookup("device-url"))
	_ = settings.BindPFlag("log-level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config or RIGPANEL_CONFIG,
// falling back to defaults, then applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := settings.GetString("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	overrides := config.Overrides{
		DeviceURL: settings.GetString("device-url"),
		Port:      settings.GetInt("port"),
	}
	if err := cfg.Apply(overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logLevel parses --log-level, defaulting to info.
func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.GetString("log-level"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
