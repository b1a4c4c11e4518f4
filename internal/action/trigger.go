// Package action implements the one-shot device commands of rigpanel.
//
// A [Trigger] issues a single GET to a device endpoint. It never retries and
// never touches the display. Triggers are independent of the metrics poller
// and of each other; concurrent sends are allowed.
package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hit2hat/rigpanel/internal/fetch"
)

// Names of the built-in triggers, used in logs and the HTTP API.
const (
	Door    = "door"
	Charger = "charger"
)

// Trigger sends a fire-and-forget command to a device endpoint.
type Trigger struct {
	name   string
	url    string
	report bool
	client *fetch.Client
	logger *slog.Logger

	inflight sync.WaitGroup
}

// NewDoorToggle returns the door trigger. Its outcome is logged: Info on a
// response, Warn when the request fails.
func NewDoorToggle(url string, client *fetch.Client, logger *slog.Logger) *Trigger {
	return newTrigger(Door, url, true, client, logger)
}

// NewChargerToggle returns the charger/LED trigger. Its outcome is neither
// inspected nor logged.
func NewChargerToggle(url string, client *fetch.Client, logger *slog.Logger) *Trigger {
	return newTrigger(Charger, url, false, client, logger)
}

func newTrigger(name, url string, report bool, client *fetch.Client, logger *slog.Logger) *Trigger {
	if client == nil {
		client = fetch.NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		name:   name,
		url:    url,
		report: report,
		client: client,
		logger: logger,
	}
}

// Name returns the trigger name.
func (t *Trigger) Name() string { return t.name }

// URL returns the endpoint the trigger calls.
func (t *Trigger) URL() string { return t.url }

// Reports tells whether the trigger logs its outcome.
func (t *Trigger) Reports() bool { return t.report }

// Send issues the request and waits for it to settle.
//
// Any response counts as success, whatever its status code. The returned
// status is zero when no response arrived.
func (t *Trigger) Send(ctx context.Context) (int, error) {
	if t.url == "" {
		return 0, errors.New(t.name + ": no URL configured")
	}

	requestID := uuid.NewString()
	resp := t.client.Get(ctx, t.url, map[string]string{"X-Request-ID": requestID}, 0)

	if t.report {
		attrs := []any{
			"action", t.name,
			"url", t.url,
			"request_id", requestID,
			"latency_ms", resp.Latency.Milliseconds(),
		}
		if resp.Error != nil {
			t.logger.Warn("action failed", append(attrs, "error", resp.Error.Error())...)
		} else {
			t.logger.Info("action sent", append(attrs, "status_code", resp.StatusCode)...)
		}
	}

	return resp.StatusCode, resp.Error
}

// Fire sends the request in the background and returns immediately.
//
// The request is detached from ctx cancellation: once fired it runs until it
// settles. Use [Trigger.Wait] to block until fired requests are done.
func (t *Trigger) Fire(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		_, _ = t.Send(ctx)
	}()
}

// Wait blocks until every request started by [Trigger.Fire] has settled.
func (t *Trigger) Wait() {
	t.inflight.Wait()
}
