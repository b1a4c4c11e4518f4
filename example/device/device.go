// Package device emulates the rover's HTTP API for demos and tests.
//
// The emulated rover keeps its metrics in single bytes, like the firmware,
// so out-of-range coordinates wrap around. Text replies are "OK" or "BAD".
package device

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Replies sent by the text endpoints.
const (
	ReplyOK  = "OK"
	ReplyBad = "BAD"
)

// MaxClients is how many names /api/auth registers before refusing.
const MaxClients = 5

// Metrics is the document served at /api/getMetrics.
type Metrics struct {
	Temperature   uint8 `json:"temperature"`
	Humidity      uint8 `json:"humidity"`
	Fuel          uint8 `json:"fuel"`
	CoordsX       uint8 `json:"coords_x"`
	CoordsY       uint8 `json:"coords_y"`
	CountCharges  uint8 `json:"count_charges"`
	CountMissions uint8 `json:"count_missions"`
}

// Device is an in-memory rover.
type Device struct {
	mu       sync.Mutex
	metrics  Metrics
	doorOpen bool
	ledOn    bool
	clients  map[string]string
	logger   *slog.Logger
}

// New returns a rover with the given starting metrics.
func New(initial Metrics, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		metrics: initial,
		clients: make(map[string]string),
		logger:  logger,
	}
}

// Metrics returns the current metrics.
func (d *Device) Metrics() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics
}

// DoorOpen reports the door state.
func (d *Device) DoorOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doorOpen
}

// LEDOn reports the charger LED state.
func (d *Device) LEDOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledOn
}

// Handler returns the rover's HTTP routes.
func (d *Device) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/getMetrics", d.handleMetrics)
	mux.HandleFunc("GET /api/auth", d.handleAuth)
	mux.HandleFunc("GET /api/setFuel", d.handleSetFuel)
	mux.HandleFunc("GET /api/setCoords", d.handleSetCoords)
	mux.HandleFunc("GET /api/toggleDoor", d.handleToggleDoor)
	mux.HandleFunc("GET /api/turnLed", d.handleTurnLED)
	return mux
}

func (d *Device) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := d.Metrics()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

func (d *Device) handleAuth(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		reply(w, ReplyBad)
		return
	}

	d.mu.Lock()
	_, taken := d.clients[name]
	full := len(d.clients) >= MaxClients
	if !taken && !full {
		d.clients[name] = r.RemoteAddr
	}
	d.mu.Unlock()

	if taken || full {
		reply(w, ReplyBad)
		return
	}
	d.logger.Info("client registered", "name", name, "addr", r.RemoteAddr)
	reply(w, ReplyOK)
}

func (d *Device) handleSetFuel(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("fuel")
	fuel, err := strconv.Atoi(raw)
	if err != nil || fuel < 0 || fuel > 100 {
		reply(w, ReplyBad)
		return
	}

	d.mu.Lock()
	d.metrics.Fuel = uint8(fuel)
	d.mu.Unlock()

	d.logger.Debug("fuel set", "fuel", fuel)
	reply(w, ReplyOK)
}

func (d *Device) handleSetCoords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		reply(w, ReplyBad)
		return
	}

	d.mu.Lock()
	// bytes on the rover, so values wrap
	d.metrics.CoordsX = uint8(x)
	d.metrics.CoordsY = uint8(y)
	d.mu.Unlock()

	d.logger.Debug("coords set", "x", uint8(x), "y", uint8(y))
	reply(w, ReplyOK)
}

func (d *Device) handleToggleDoor(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.doorOpen = !d.doorOpen
	open := d.doorOpen
	if open {
		d.metrics.CountMissions++
	}
	d.mu.Unlock()

	d.logger.Info("door toggled", "open", open, "request_id", r.Header.Get("X-Request-ID"))
	reply(w, ReplyOK)
}

func (d *Device) handleTurnLED(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.ledOn = !d.ledOn
	on := d.ledOn
	if on {
		d.metrics.CountCharges++
	}
	d.mu.Unlock()

	d.logger.Info("charger toggled", "on", on)
	reply(w, ReplyOK)
}

// Drift nudges temperature and humidity every interval until ctx is done,
// and burns one percent of fuel per tick while the door is open.
func (d *Device) Drift(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.step(rand.IntN(3)-1, rand.IntN(3)-1)
		}
	}
}

// step applies one drift tick with the given temperature and humidity deltas.
func (d *Device) step(dTemp, dHum int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.metrics.Temperature = clamp(int(d.metrics.Temperature)+dTemp, 0, 60)
	d.metrics.Humidity = clamp(int(d.metrics.Humidity)+dHum, 0, 100)
	if d.doorOpen && d.metrics.Fuel > 0 {
		d.metrics.Fuel--
	}
}

func clamp(v, lo, hi int) uint8 {
	return uint8(max(lo, min(v, hi)))
}

func reply(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s))
}
