package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse_EmptyConfigAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(``))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DeviceURL != "http://192.168.4.1" {
		t.Errorf("DeviceURL = %q, want http://192.168.4.1", cfg.DeviceURL)
	}
	if cfg.PollInterval.Duration() != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval.Duration())
	}
	if cfg.Timeout.Duration() != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout.Duration())
	}
	if cfg.MetricsPath != "/api/getMetrics" {
		t.Errorf("MetricsPath = %q", cfg.MetricsPath)
	}
	if cfg.DoorPath != "/api/toggleDoor" {
		t.Errorf("DoorPath = %q", cfg.DoorPath)
	}
	if cfg.ChargerURL != "http://192.168.4.1/api/turnLed" {
		t.Errorf("ChargerURL = %q", cfg.ChargerURL)
	}
	wantUnits := map[string]string{"temperature": "℃", "humidity": "%", "fuel": "%"}
	if !reflect.DeepEqual(cfg.Units, wantUnits) {
		t.Errorf("Units = %v, want %v", cfg.Units, wantUnits)
	}
	wantElements := []string{"temperature", "humidity", "fuel"}
	if !reflect.DeepEqual(cfg.Elements, wantElements) {
		t.Errorf("Elements = %v, want %v", cfg.Elements, wantElements)
	}
}

func TestDefault_MatchesEmptyParse(t *testing.T) {
	parsed, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(Default(), parsed) {
		t.Errorf("Default() = %+v, want %+v", Default(), parsed)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Rover 7
port: 9090
device_url: http://10.0.0.7
poll_interval: 2s
timeout: 3s
metrics_path: /metrics
door_path: /door
charger_url: http://10.0.0.8/led
units:
  temperature: "°F"
  fuel: " L"
elements: [temperature, fuel, count_missions]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Rover 7" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.DeviceURL != "http://10.0.0.7" {
		t.Errorf("DeviceURL = %q", cfg.DeviceURL)
	}
	if cfg.PollInterval.Duration() != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval.Duration())
	}
	if cfg.Timeout.Duration() != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout.Duration())
	}
	if cfg.MetricsPath != "/metrics" || cfg.DoorPath != "/door" {
		t.Errorf("paths = %q, %q", cfg.MetricsPath, cfg.DoorPath)
	}
	if cfg.ChargerURL != "http://10.0.0.8/led" {
		t.Errorf("ChargerURL = %q", cfg.ChargerURL)
	}
	if !reflect.DeepEqual(cfg.Units, map[string]string{"temperature": "°F", "fuel": " L"}) {
		t.Errorf("Units = %v", cfg.Units)
	}
	if !reflect.DeepEqual(cfg.Elements, []string{"temperature", "fuel", "count_missions"}) {
		t.Errorf("Elements = %v", cfg.Elements)
	}
}

func TestParse_EmptyUnitsDisablesSuffixes(t *testing.T) {
	cfg, err := Parse([]byte("units: {}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Units == nil || len(cfg.Units) != 0 {
		t.Errorf("Units = %v, want empty non-nil map", cfg.Units)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_ROVER_HOST", "rover.test")
	t.Setenv("TEST_ROVER_NAME", "Scout")

	yaml := `
title: "${TEST_ROVER_NAME} panel"
device_url: "http://${TEST_ROVER_HOST}"
charger_url: "http://${TEST_ROVER_HOST}/api/turnLed"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Scout panel" {
		t.Errorf("Title = %q, want 'Scout panel'", cfg.Title)
	}
	if cfg.DeviceURL != "http://rover.test" {
		t.Errorf("DeviceURL = %q, want http://rover.test", cfg.DeviceURL)
	}
	if cfg.ChargerURL != "http://rover.test/api/turnLed" {
		t.Errorf("ChargerURL = %q", cfg.ChargerURL)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `device_url: "${UNSET_ROVER_URL:-http://fallback.local}"`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.DeviceURL != "http://fallback.local" {
		t.Errorf("DeviceURL = %q, want http://fallback.local", cfg.DeviceURL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `device_url: "http://${MISSING_ROVER_VAR}"`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_ROVER_VAR") {
		t.Errorf("error should mention MISSING_ROVER_VAR: %v", err)
	}
	if !strings.Contains(err.Error(), "device_url") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "device url without scheme",
			yaml:        `device_url: 192.168.4.1`,
			wantErrLike: "device_url",
		},
		{
			name:        "device url bad scheme",
			yaml:        `device_url: ftp://192.168.4.1`,
			wantErrLike: "scheme must be http or https",
		},
		{
			name:        "device url without host",
			yaml:        `device_url: "http://"`,
			wantErrLike: "must have a host",
		},
		{
			name:        "charger url relative",
			yaml:        `charger_url: /api/turnLed`,
			wantErrLike: "charger_url",
		},
		{
			name:        "port too large",
			yaml:        `port: 70000`,
			wantErrLike: "port must be between",
		},
		{
			name:        "port negative",
			yaml:        `port: -1`,
			wantErrLike: "port must be between",
		},
		{
			name:        "poll interval below minimum",
			yaml:        `poll_interval: 10ms`,
			wantErrLike: "poll_interval must be at least",
		},
		{
			name:        "negative timeout",
			yaml:        `timeout: -1s`,
			wantErrLike: "timeout cannot be negative",
		},
		{
			name: "empty element id",
			yaml: `
elements: [temperature, ""]
`,
			wantErrLike: "elements[1]: id is required",
		},
		{
			name: "duplicate element id",
			yaml: `
elements: [fuel, humidity, fuel]
`,
			wantErrLike: `elements[2]: duplicate id "fuel"`,
		},
		{
			name: "empty unit key",
			yaml: `
units:
  "": "%"
`,
			wantErrLike: "units: empty metric key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %v, want error containing %q", err, tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want 'failed to parse YAML'", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"zero", "0s", 0, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("timeout: " + tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Timeout.Duration() != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/rigpanel.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v", err)
	}
}

func TestConfig_Apply(t *testing.T) {
	cfg := Default()
	if err := cfg.Apply(Overrides{}); err != nil {
		t.Fatalf("Apply(empty) error = %v", err)
	}
	if cfg.DeviceURL != DefaultDeviceURL || cfg.Port != DefaultPort {
		t.Errorf("empty overrides changed config: %+v", cfg)
	}

	if err := cfg.Apply(Overrides{DeviceURL: "http://rover.local", Port: 9000}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cfg.DeviceURL != "http://rover.local" {
		t.Errorf("DeviceURL = %q", cfg.DeviceURL)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}

	if err := cfg.Apply(Overrides{Port: 70000}); err == nil {
		t.Error("Apply() expected error for invalid port, got nil")
	}
	if err := Default().Apply(Overrides{DeviceURL: "rover.local"}); err == nil {
		t.Error("Apply() expected error for URL without scheme, got nil")
	}
}
