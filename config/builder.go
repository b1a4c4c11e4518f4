package config

import (
	"github.com/hit2hat/rigpanel"
)

// BuildOptions converts parsed configuration into SDK options for
// [rigpanel.New].
//
// Logger, callbacks and headless mode are not part of the file format;
// callers append those options themselves.
func BuildOptions(cfg *Config) []rigpanel.Option {
	opts := []rigpanel.Option{
		rigpanel.WithBaseURL(cfg.DeviceURL),
		rigpanel.WithMetricsPath(cfg.MetricsPath),
		rigpanel.WithDoorPath(cfg.DoorPath),
		rigpanel.WithChargerURL(cfg.ChargerURL),
		rigpanel.WithPollingInterval(cfg.PollInterval.Duration()),
		rigpanel.WithRequestTimeout(cfg.Timeout.Duration()),
		rigpanel.WithUnits(rigpanel.NewUnitTable(cfg.Units)),
		rigpanel.WithElements(cfg.Elements...),
		rigpanel.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, rigpanel.WithTitle(cfg.Title))
	}

	return opts
}
