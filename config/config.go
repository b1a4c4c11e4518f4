// Package config provides YAML configuration parsing for rigpanel.
//
// This package enables running rigpanel as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Rover
//	port: 8080
//	device_url: ${ROVER_URL:-http://192.168.4.1}
//	poll_interval: 1s
//	timeout: 3s
//
//	units:
//	  temperature: "℃"
//	  humidity: "%"
//	  fuel: "%"
//
//	elements: [temperature, humidity, fuel, count_missions]
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Parse] to fields left out of the file.
const (
	DefaultPort         = 8080
	DefaultDeviceURL    = "http://192.168.4.1"
	DefaultPollInterval = time.Second
	DefaultMetricsPath  = "/api/getMetrics"
	DefaultDoorPath     = "/api/toggleDoor"
	DefaultChargerURL   = "http://192.168.4.1/api/turnLed"
)

// minPollInterval is the shortest poll_interval a config file may set.
// The device is a microcontroller serving one request at a time.
const minPollInterval = 100 * time.Millisecond

// Config is the root configuration structure for rigpanel.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// DeviceURL is the device base URL; metrics_path and door_path resolve
	// against it. Supports ${VAR} and ${VAR:-default}.
	DeviceURL string `yaml:"device_url"`

	// PollInterval is the delay between the end of one poll and the start of
	// the next. Defaults to 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout bounds each metrics request. Zero disables it.
	Timeout Duration `yaml:"timeout"`

	// MetricsPath is the metrics endpoint. Defaults to /api/getMetrics.
	MetricsPath string `yaml:"metrics_path"`

	// DoorPath is the door toggle endpoint. Defaults to /api/toggleDoor.
	DoorPath string `yaml:"door_path"`

	// ChargerURL is the absolute charger toggle URL. It does not follow
	// device_url. Supports environment variable substitution.
	ChargerURL string `yaml:"charger_url"`

	// Units maps metric keys to display suffixes. Omitted means the
	// built-in table; an empty mapping disables suffixes.
	Units map[string]string `yaml:"units"`

	// Elements lists the display element ids. Defaults to
	// temperature, humidity and fuel.
	Elements []string `yaml:"elements"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in title, device_url and charger_url.
// Every omitted field gets its default.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Overrides are values supplied outside the file, typically CLI flags or
// environment variables. Zero fields leave the file value alone.
type Overrides struct {
	DeviceURL string
	Port      int
}

// Apply sets the non-zero overrides and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.DeviceURL != "" {
		c.DeviceURL = o.DeviceURL
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	return c.expandAndValidate()
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DeviceURL == "" {
		c.DeviceURL = DefaultDeviceURL
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.DoorPath == "" {
		c.DoorPath = DefaultDoorPath
	}
	if c.ChargerURL == "" {
		c.ChargerURL = DefaultChargerURL
	}
	if c.Units == nil {
		c.Units = map[string]string{
			"temperature": "℃",
			"humidity":    "%",
			"fuel":        "%",
		}
	}
	if len(c.Elements) == 0 {
		c.Elements = []string{"temperature", "humidity", "fuel"}
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	var err error

	if c.Title, err = expandEnvVars(c.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if c.DeviceURL, err = expandEnvVars(c.DeviceURL); err != nil {
		return fmt.Errorf("device_url: %w", err)
	}
	if c.ChargerURL, err = expandEnvVars(c.ChargerURL); err != nil {
		return fmt.Errorf("charger_url: %w", err)
	}

	if err := validateHTTPURL(c.DeviceURL); err != nil {
		return fmt.Errorf("device_url: %w", err)
	}
	if err := validateHTTPURL(c.ChargerURL); err != nil {
		return fmt.Errorf("charger_url: %w", err)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	seen := make(map[string]struct{}, len(c.Elements))
	for i, id := range c.Elements {
		if id == "" {
			return fmt.Errorf("elements[%d]: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("elements[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
	}

	for key := range c.Units {
		if key == "" {
			return fmt.Errorf("units: empty metric key")
		}
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}
