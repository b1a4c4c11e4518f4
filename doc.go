// Package rigpanel provides an embeddable control panel for a small field
// device: a rover with a door, a charger LED and a handful of sensors.
//
// A [Panel] polls the device's metrics endpoint once per second and writes
// each metric into the display element with the same id, appending a unit
// suffix for known keys. It also exposes the device's two actions, the door
// toggle and the charger toggle, as fire-and-forget requests.
//
// # Quick Start
//
//	p, _ := rigpanel.New(rigpanel.WithBaseURL("http://192.168.4.1"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	p.Start(ctx) // blocks until context is cancelled
//
// The dashboard is then served at http://localhost:8080.
//
// # Configuration
//
//	p, err := rigpanel.New(
//	    rigpanel.WithBaseURL("http://rover.local"),
//	    rigpanel.WithPollingInterval(2*time.Second),
//	    rigpanel.WithRequestTimeout(3*time.Second),
//	    rigpanel.WithUnits(rigpanel.NewUnitTable(map[string]string{"temperature": "°F"})),
//	    rigpanel.WithElements("temperature", "fuel", "count_missions"),
//	    rigpanel.WithPort(9090),
//	)
//
// # Poll Cycle
//
// Each cycle fetches the metrics document, decodes it as a flat JSON object
// and renders every key whose element exists. Keys without an element are
// skipped. A failed fetch or an undecodable body leaves the display
// untouched; the failure is logged and the next cycle runs as usual. Cycles
// never overlap. Observe them with [WithCycleCallback].
//
// # Architecture
//
//   - internal/fetch: shared HTTP client
//   - internal/poller: metrics decoding and the sequential poll loop
//   - internal/display: element registry with pub/sub for live updates
//   - internal/action: door and charger triggers
//   - internal/server: dashboard, REST, SSE and WebSocket endpoints
//   - internal/tui: terminal dashboard used by the watch command
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package rigpanel
