package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hit2hat/rigpanel/internal/display"
	"github.com/hit2hat/rigpanel/internal/fetch"
)

// DefaultInterval is the delay between the end of one cycle and the start of
// the next.
const DefaultInterval = time.Second

// CycleResult holds the outcome of one poll cycle.
type CycleResult struct {
	// Seq is the 1-based cycle number.
	Seq uint64
	// StartedAt is when the fetch was issued.
	StartedAt time.Time
	// Latency is the time taken by the HTTP request.
	Latency time.Duration
	// StatusCode is the HTTP status of the response, zero if none arrived.
	StatusCode int
	// Values holds the decoded metric texts (without unit suffix).
	// nil when the cycle failed.
	Values map[string]string
	// Updated lists the keys written to an element.
	Updated []string
	// Skipped lists the keys that had no matching element.
	Skipped []string
	// Err is nil on success, otherwise wraps [ErrNetwork] or [ErrDecode].
	Err error
}

// Config holds everything a [Poller] needs.
type Config struct {
	// URL is the absolute metrics endpoint URL. Required.
	URL string
	// Interval is the delay armed after each cycle. Defaults to [DefaultInterval].
	Interval time.Duration
	// Timeout is an optional per-request timeout. Zero disables it.
	Timeout time.Duration
	// Display receives rendered values. Required.
	Display display.Display
	// Formatter appends unit suffixes. May be nil.
	Formatter display.Formatter
	// Client performs the requests. Defaults to fetch.NewClient().
	Client *fetch.Client
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Observe, if set, is called synchronously after every cycle.
	Observe func(CycleResult)
}

// Poller keeps a display fresh by polling the metrics endpoint forever.
//
// A Poller runs at most one cycle at a time and can only be started once.
type Poller struct {
	url       string
	interval  time.Duration
	timeout   time.Duration
	display   display.Display
	formatter display.Formatter
	client    *fetch.Client
	logger    *slog.Logger
	observe   func(CycleResult)

	started atomic.Bool
	seq     atomic.Uint64
}

// New creates a [Poller] from cfg.
func New(cfg Config) (*Poller, error) {
	if cfg.URL == "" {
		return nil, errors.New("metrics URL is required")
	}
	if cfg.Display == nil {
		return nil, errors.New("display is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("interval cannot be negative, got %s", cfg.Interval)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative, got %s", cfg.Timeout)
	}

	p := &Poller{
		url:       cfg.URL,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		display:   cfg.Display,
		formatter: cfg.Formatter,
		client:    cfg.Client,
		logger:    cfg.Logger,
		observe:   cfg.Observe,
	}
	if p.interval == 0 {
		p.interval = DefaultInterval
	}
	if p.client == nil {
		p.client = fetch.NewClient()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Interval returns the delay armed after each cycle.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run executes cycles until ctx is cancelled.
//
// The first cycle starts immediately. After each cycle, successful or not,
// Run waits Interval before starting the next one. Run returns nil once ctx
// is done, or [ErrAlreadyStarted] if the poller was started before.
func (p *Poller) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer p.client.Close()

	for ctx.Err() == nil {
		res := p.Cycle(ctx)
		if p.observe != nil {
			p.observe(res)
		}
		if !p.wait(ctx) {
			break
		}
	}

	p.logger.Debug("metrics poller stopped", "cycles", p.seq.Load())
	return nil
}

// wait sleeps for the interval. It reports false if ctx ended first.
func (p *Poller) wait(ctx context.Context) bool {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Cycle runs a single fetch, decode and render pass.
//
// Any failure is logged and reported in [CycleResult.Err]; the display is
// left untouched in that case.
func (p *Poller) Cycle(ctx context.Context) CycleResult {
	res := CycleResult{
		Seq:       p.seq.Add(1),
		StartedAt: time.Now(),
	}

	resp := p.client.Get(ctx, p.url, nil, p.timeout)
	res.Latency = resp.Latency
	res.StatusCode = resp.StatusCode

	if resp.Error != nil {
		res.Err = fmt.Errorf("%w: %w", ErrNetwork, resp.Error)
		p.logFailure(ctx, res)
		return res
	}

	snap, err := Decode(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrDecode, err)
		p.logFailure(ctx, res)
		return res
	}

	res.Values = snap.Texts()
	report := display.Render(p.display, res.Values, p.formatter)
	res.Updated = report.Updated
	res.Skipped = report.Skipped

	p.logger.Debug("metrics rendered",
		"seq", res.Seq,
		"updated", len(res.Updated),
		"skipped", res.Skipped,
		"status_code", res.StatusCode,
		"latency_ms", res.Latency.Milliseconds(),
	)
	return res
}

func (p *Poller) logFailure(ctx context.Context, res CycleResult) {
	attrs := []any{
		"seq", res.Seq,
		"url", p.url,
		"status_code", res.StatusCode,
		"latency_ms", res.Latency.Milliseconds(),
		"error", res.Err.Error(),
	}
	// cancellation during shutdown is not a device problem
	if ctx.Err() != nil {
		p.logger.Debug("metrics poll interrupted", attrs...)
		return
	}
	p.logger.Warn("metrics poll failed", attrs...)
}
