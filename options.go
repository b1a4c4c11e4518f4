package rigpanel

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// panelConfig holds mutable state during Panel construction.
type panelConfig struct {
	title           string
	baseURL         string
	metricsPath     string
	doorPath        string
	chargerURL      string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	units           UnitTable
	unitsSet        bool
	elements        []string
	port            int
	headless        bool
	logger          *slog.Logger
	cycleCallbacks  []func(CycleResult)
}

// Option is a function that configures a [Panel] instance during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails, and [New] returns the first such error.
type Option func(*panelConfig) error

// WithBaseURL sets the device base URL the metrics and door paths resolve
// against.
//
// Defaults to http://192.168.4.1, the address of the device's own access point.
//
// Example:
//
//	p, err := rigpanel.New(
//	    rigpanel.WithBaseURL("http://rover.local"),
//	)
//
// Returns an error unless the URL is absolute with an http or https scheme.
func WithBaseURL(raw string) Option {
	return func(cfg *panelConfig) error {
		if err := validateAbsoluteURL(raw); err != nil {
			return fmt.Errorf("base URL: %w", err)
		}
		cfg.baseURL = raw
		return nil
	}
}

// WithMetricsPath sets the metrics endpoint path, relative to the base URL.
//
// Defaults to /api/getMetrics.
func WithMetricsPath(path string) Option {
	return func(cfg *panelConfig) error {
		if path == "" {
			return errors.New("metrics path cannot be empty")
		}
		cfg.metricsPath = path
		return nil
	}
}

// WithDoorPath sets the door toggle path, relative to the base URL.
//
// Defaults to /api/toggleDoor.
func WithDoorPath(path string) Option {
	return func(cfg *panelConfig) error {
		if path == "" {
			return errors.New("door path cannot be empty")
		}
		cfg.doorPath = path
		return nil
	}
}

// WithChargerURL sets the absolute URL of the charger (LED) toggle.
//
// Unlike the door path, the charger URL does not follow [WithBaseURL]: the
// device serves it on its access point address. Defaults to
// http://192.168.4.1/api/turnLed.
func WithChargerURL(raw string) Option {
	return func(cfg *panelConfig) error {
		if err := validateAbsoluteURL(raw); err != nil {
			return fmt.Errorf("charger URL: %w", err)
		}
		cfg.chargerURL = raw
		return nil
	}
}

// WithPollingInterval sets the delay between the end of one metrics poll and
// the start of the next.
//
// The next poll is scheduled only after the current one has finished, so the
// effective period is the interval plus the request latency. Defaults to
// 1 second.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *panelConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithRequestTimeout bounds each metrics request.
//
// Zero, the default, means no timeout: a hung request holds the poll loop
// until it settles.
//
// Returns an error if the duration is negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *panelConfig) error {
		if d < 0 {
			return errors.New("request timeout cannot be negative")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithUnits replaces the unit table used to suffix rendered values.
//
// Defaults to [DefaultUnits]. Pass an empty table to render raw values.
func WithUnits(units UnitTable) Option {
	return func(cfg *panelConfig) error {
		cfg.units = units
		cfg.unitsSet = true
		return nil
	}
}

// WithElements declares the display element ids.
//
// Metrics whose key matches no element are skipped. Defaults to
// temperature, humidity and fuel.
//
// Returns an error if no ids are given or any id is empty.
func WithElements(ids ...string) Option {
	return func(cfg *panelConfig) error {
		if len(ids) == 0 {
			return errors.New("at least one element id is required")
		}
		for i, id := range ids {
			if id == "" {
				return fmt.Errorf("element id at index %d is empty", i)
			}
		}
		cfg.elements = append([]string(nil), ids...)
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Defaults to 8080. Ignored with [WithoutServer].
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *panelConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title shown in the browser tab and header.
func WithTitle(title string) Option {
	return func(cfg *panelConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Panel.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *panelConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCycleCallback registers a function called after every poll cycle.
//
// Callbacks run in registration order on the poll goroutine, after the
// display has been updated, and delay the next cycle while they run. Panics
// are recovered and logged.
//
// Example:
//
//	p, err := rigpanel.New(
//	    rigpanel.WithCycleCallback(func(r rigpanel.CycleResult) {
//	        if errors.Is(r.Err, rigpanel.ErrNetwork) {
//	            log.Printf("device unreachable: %v", r.Err)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithCycleCallback(cb func(CycleResult)) Option {
	return func(cfg *panelConfig) error {
		if cb == nil {
			return nil
		}
		cfg.cycleCallbacks = append(cfg.cycleCallbacks, cb)
		return nil
	}
}

// WithoutServer runs the panel headless: [Panel.Start] polls and renders
// into [Panel.Display] but serves no HTTP.
func WithoutServer() Option {
	return func(cfg *panelConfig) error {
		cfg.headless = true
		return nil
	}
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required, got %q", raw)
	}
	return nil
}
