package rigpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hit2hat/rigpanel/dashboard"
	"github.com/hit2hat/rigpanel/internal/action"
	"github.com/hit2hat/rigpanel/internal/display"
	"github.com/hit2hat/rigpanel/internal/fetch"
	"github.com/hit2hat/rigpanel/internal/poller"
	"github.com/hit2hat/rigpanel/internal/server"
)

const (
	defaultBaseURL         = "http://192.168.4.1"
	defaultMetricsPath     = "/api/getMetrics"
	defaultDoorPath        = "/api/toggleDoor"
	defaultChargerURL      = "http://192.168.4.1/api/turnLed"
	defaultPollingInterval = time.Second
	defaultPort            = 8080
)

// DefaultElements returns the element ids declared when [WithElements] is
// not used.
func DefaultElements() []string {
	return []string{"temperature", "humidity", "fuel"}
}

// Action names accepted by [Panel.Send].
const (
	ActionDoor    = action.Door
	ActionCharger = action.Charger
)

// ErrUnknownAction is returned by [Panel.Send] for an unrecognised action name.
var ErrUnknownAction = errors.New("unknown action")

// Panel keeps a set of display elements in sync with the device's metrics
// and exposes the device's door and charger toggles.
//
// A Panel is created with [New] and runs with [Panel.Start]:
//
//	p, err := rigpanel.New(rigpanel.WithBaseURL("http://192.168.4.1"))
//	if err != nil {
//	    slog.Error("failed to create panel", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	p.Start(ctx) // blocks until context cancelled
type Panel struct {
	title           string
	metricsURL      string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	units           UnitTable
	port            int
	headless        bool
	logger          *slog.Logger
	cycleCallbacks  []func(CycleResult)

	display *display.Memory
	poller  *poller.Poller
	door    *action.Trigger
	charger *action.Trigger

	started atomic.Bool
}

// New creates a [Panel] with the given options.
//
// Defaults:
//   - Base URL: http://192.168.4.1
//   - Metrics path: /api/getMetrics
//   - Door path: /api/toggleDoor
//   - Charger URL: http://192.168.4.1/api/turnLed
//   - Polling interval: 1 second, no request timeout
//   - Units: [DefaultUnits]
//   - Elements: [DefaultElements]
//   - Port: 8080
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Panel, error) {
	cfg := &panelConfig{
		baseURL:         defaultBaseURL,
		metricsPath:     defaultMetricsPath,
		doorPath:        defaultDoorPath,
		chargerURL:      defaultChargerURL,
		pollingInterval: defaultPollingInterval,
		elements:        DefaultElements(),
		port:            defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if !cfg.unitsSet {
		cfg.units = DefaultUnits()
	}

	metricsURL, err := resolve(cfg.baseURL, cfg.metricsPath)
	if err != nil {
		return nil, fmt.Errorf("metrics path: %w", err)
	}
	doorURL, err := resolve(cfg.baseURL, cfg.doorPath)
	if err != nil {
		return nil, fmt.Errorf("door path: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Panel{
		title:           cfg.title,
		metricsURL:      metricsURL,
		pollingInterval: cfg.pollingInterval,
		requestTimeout:  cfg.requestTimeout,
		units:           cfg.units,
		port:            cfg.port,
		headless:        cfg.headless,
		logger:          logger,
		cycleCallbacks:  cfg.cycleCallbacks,
		display:         display.NewMemory(cfg.elements...),
	}

	client := fetch.NewClient()
	p.door = action.NewDoorToggle(doorURL, client, logger)
	p.charger = action.NewChargerToggle(cfg.chargerURL, client, logger)

	p.poller, err = poller.New(poller.Config{
		URL:       metricsURL,
		Interval:  cfg.pollingInterval,
		Timeout:   cfg.requestTimeout,
		Display:   p.display,
		Formatter: p.units,
		Client:    client,
		Logger:    logger,
		Observe:   p.observe,
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Start polls the device and serves the dashboard until ctx is cancelled.
//
// The first poll runs immediately; each following poll starts one polling
// interval after the previous one completed. Unless [WithoutServer] was
// given, the dashboard is served on the configured port.
//
// Returns nil on graceful shutdown, or if ctx is already done. Returns an
// error if the HTTP server fails to start, and [ErrAlreadyStarted] if the
// panel was started before: the poll loop runs at most once per Panel.
func (p *Panel) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	p.logger.Info("rigpanel starting",
		"metrics_url", p.metricsURL,
		"elements", len(p.display.IDs()),
	)
	p.logger.Info("polling configured", "interval", p.pollingInterval.String())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.poller.Run(runCtx)
	}()

	if !p.headless {
		actions := []server.Action{p.door, p.charger}
		httpServer := server.NewServer(p.display, actions, p.port, dashboard.Assets, p.title, p.logger)
		if err := httpServer.Start(runCtx); err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		p.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", p.port))
	}

	<-ctx.Done()
	wg.Wait()
	p.logger.Info("rigpanel stopped")
	return nil
}

// Display returns the element registry the panel renders into.
func (p *Panel) Display() *display.Memory {
	return p.display
}

// ToggleDoor fires the door toggle and returns immediately.
//
// The request outlives ctx cancellation. Its outcome is logged.
func (p *Panel) ToggleDoor(ctx context.Context) {
	p.door.Fire(ctx)
}

// ToggleCharger fires the charger toggle and returns immediately.
//
// The request outlives ctx cancellation. Its outcome is not logged.
func (p *Panel) ToggleCharger(ctx context.Context) {
	p.charger.Fire(ctx)
}

// Send issues the named action and waits for the device to respond.
//
// Any response counts as success; the status code is returned as-is.
func (p *Panel) Send(ctx context.Context, name string) (int, error) {
	switch name {
	case ActionDoor:
		return p.door.Send(ctx)
	case ActionCharger:
		return p.charger.Send(ctx)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// WaitActions blocks until every fired toggle has settled.
func (p *Panel) WaitActions() {
	p.door.Wait()
	p.charger.Wait()
}

// Title returns the dashboard title.
func (p *Panel) Title() string {
	return p.title
}

// Port returns the configured HTTP port for the dashboard server.
func (p *Panel) Port() int {
	return p.port
}

// PollingInterval returns the delay between polls.
func (p *Panel) PollingInterval() time.Duration {
	return p.pollingInterval
}

// RequestTimeout returns the per-request metrics timeout, zero if none.
func (p *Panel) RequestTimeout() time.Duration {
	return p.requestTimeout
}

// MetricsURL returns the resolved metrics endpoint.
func (p *Panel) MetricsURL() string {
	return p.metricsURL
}

// DoorURL returns the resolved door toggle endpoint.
func (p *Panel) DoorURL() string {
	return p.door.URL()
}

// ChargerURL returns the charger toggle endpoint.
func (p *Panel) ChargerURL() string {
	return p.charger.URL()
}

// Units returns the unit table.
func (p *Panel) Units() UnitTable {
	return p.units
}

// Elements returns the declared element ids, sorted.
func (p *Panel) Elements() []string {
	return p.display.IDs()
}

// Headless reports whether the panel runs without its HTTP server.
func (p *Panel) Headless() bool {
	return p.headless
}

// observe fans a finished cycle out to the registered callbacks.
func (p *Panel) observe(r poller.CycleResult) {
	if len(p.cycleCallbacks) == 0 {
		return
	}
	for _, cb := range p.cycleCallbacks {
		// each callback gets its own copy of the mutable fields
		invokeCallbackSafe(cb, toPublicResult(r), p.logger)
	}
}

// resolve joins ref onto base the way a browser resolves a link.
func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// invokeCallbackSafe calls a cycle callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe(cb func(CycleResult), result CycleResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("cycle callback panicked",
				"panic", r,
				"seq", result.Seq,
				"correlation_id", uuid.NewString(),
			)
		}
	}()
	cb(result)
}
