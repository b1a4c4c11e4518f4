package poller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hit2hat/rigpanel/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type units map[string]string

func (u units) Format(key, text string) string {
	if s := u[key]; s != "" {
		return text + s
	}
	return text
}

var defaultUnits = units{"temperature": "℃", "humidity": "%", "fuel": "%"}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestPoller(t *testing.T, url string, d display.Display, mutate ...func(*Config)) *Poller {
	t.Helper()
	cfg := Config{
		URL:       url,
		Interval:  10 * time.Millisecond,
		Display:   d,
		Formatter: defaultUnits,
		Logger:    testLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func elementText(t *testing.T, d display.Display, id string) string {
	t.Helper()
	el, ok := d.Lookup(id)
	require.True(t, ok, "element %q missing", id)
	return el.Text()
}

func TestNew_Validation(t *testing.T) {
	d := display.NewMemory()

	_, err := New(Config{Display: d})
	assert.ErrorContains(t, err, "URL is required")

	_, err = New(Config{URL: "http://device"})
	assert.ErrorContains(t, err, "display is required")

	_, err = New(Config{URL: "http://device", Display: d, Interval: -time.Second})
	assert.ErrorContains(t, err, "interval cannot be negative")

	_, err = New(Config{URL: "http://device", Display: d, Timeout: -time.Second})
	assert.ErrorContains(t, err, "timeout cannot be negative")

	p, err := New(Config{URL: "http://device", Display: d})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, p.Interval())
}

// Elements temperature and humidity exist, fuel does not.
func TestCycle_RendersWithUnitsAndSkipsMissing(t *testing.T) {
	ts := jsonServer(t, `{"temperature": 21, "humidity": 40, "fuel": 80}`)
	d := display.NewMemory("temperature", "humidity")
	p := newTestPoller(t, ts.URL, d)

	res := p.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"humidity", "temperature"}, res.Updated)
	assert.Equal(t, []string{"fuel"}, res.Skipped)
	assert.Equal(t, "21℃", elementText(t, d, "temperature"))
	assert.Equal(t, "40%", elementText(t, d, "humidity"))
}

func TestCycle_KeyWithoutUnit(t *testing.T) {
	ts := jsonServer(t, `{"pressure": 1013}`)
	d := display.NewMemory("pressure")
	p := newTestPoller(t, ts.URL, d)

	res := p.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, "1013", elementText(t, d, "pressure"))
}

func TestCycle_NetworkFailureLeavesDisplay(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	d := display.NewMemory("temperature")
	el, _ := d.Lookup("temperature")
	el.SetText("19℃")

	var logs bytes.Buffer
	p := newTestPoller(t, url, d, func(c *Config) {
		c.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	})

	res := p.Cycle(context.Background())

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrNetwork))
	assert.False(t, errors.Is(res.Err, ErrDecode))
	assert.Nil(t, res.Values)
	assert.Equal(t, "19℃", elementText(t, d, "temperature"))
	assert.Contains(t, logs.String(), "metrics poll failed")
}

func TestCycle_DecodeFailureLeavesDisplay(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	d := display.NewMemory("humidity")
	el, _ := d.Lookup("humidity")
	el.SetText("38%")

	var logs bytes.Buffer
	p := newTestPoller(t, ts.URL, d, func(c *Config) {
		c.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	})

	res := p.Cycle(context.Background())

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrDecode))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "38%", elementText(t, d, "humidity"))
	assert.Contains(t, logs.String(), "metrics poll failed")
}

// The response status is not inspected: a JSON object is rendered even when
// the device answers with an error status.
func TestCycle_ErrorStatusWithObjectBodyIsRendered(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"fuel": 5}`)
	}))
	defer ts.Close()

	d := display.NewMemory("fuel")
	p := newTestPoller(t, ts.URL, d)

	res := p.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, "5%", elementText(t, d, "fuel"))
}

func TestCycle_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	p := newTestPoller(t, ts.URL, display.NewMemory(), func(c *Config) {
		c.Timeout = 50 * time.Millisecond
	})

	res := p.Cycle(context.Background())

	assert.True(t, errors.Is(res.Err, ErrNetwork))
	assert.Less(t, res.Latency, time.Second)
}

// After failed cycles the loop keeps scheduling new ones.
func TestRun_KeepsPollingAfterFailures(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "garbage")
	}))
	defer ts.Close()

	var failures atomic.Int32
	p := newTestPoller(t, ts.URL, display.NewMemory(), func(c *Config) {
		c.Observe = func(res CycleResult) {
			if res.Err != nil {
				failures.Add(1)
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool { return failures.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

// Cycles never overlap, and the next one starts at least one interval after
// the previous response was received.
func TestRun_SequentialWithSpacing(t *testing.T) {
	const (
		delay    = 30 * time.Millisecond
		interval = 40 * time.Millisecond
	)

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		starts   []time.Time
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		starts = append(starts, time.Now())
		mu.Unlock()

		time.Sleep(delay)
		_, _ = io.WriteString(w, `{"temperature": 1}`)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}))
	defer ts.Close()

	p := newTestPoller(t, ts.URL, display.NewMemory("temperature"), func(c *Config) {
		c.Interval = interval
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(starts) >= 4
	}, 3*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen, "at most one fetch may be in flight")
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, delay+interval-5*time.Millisecond, "gap %d", i)
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	ts := jsonServer(t, `{}`)
	p := newTestPoller(t, ts.URL, display.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool { return p.started.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, p.Run(ctx), ErrAlreadyStarted)

	cancel()
	assert.NoError(t, <-done)

	// still refused after the loop stopped
	assert.ErrorIs(t, p.Run(context.Background()), ErrAlreadyStarted)
}

func TestRun_CancelledContextDoesNotFetch(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	p := newTestPoller(t, ts.URL, display.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, p.Run(ctx))
	assert.Equal(t, int32(0), hits.Load())
}

func TestRun_ObserveSeesIncreasingSeq(t *testing.T) {
	ts := jsonServer(t, `{"fuel": 80}`)

	results := make(chan CycleResult, 16)
	p := newTestPoller(t, ts.URL, display.NewMemory("fuel"), func(c *Config) {
		c.Observe = func(res CycleResult) {
			select {
			case results <- res:
			default:
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
			assert.Greater(t, res.Seq, last)
			assert.Equal(t, map[string]string{"fuel": "80"}, res.Values)
			last = res.Seq
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cycle result")
		}
	}
}
