package tui

import (
	"time"

	"github.com/hit2hat/rigpanel/internal/display"
)

// ElementMsg carries a changed element text.
type ElementMsg display.Update

// CycleMsg summarises a finished poll cycle for the footer.
type CycleMsg struct {
	Seq        uint64
	At         time.Time
	Latency    time.Duration
	StatusCode int
	Updated    int
	Skipped    int
	// Err is the failure text, empty on success.
	Err string
}

// actionSentMsg records a fired toggle so the footer can acknowledge it.
type actionSentMsg struct {
	name string
	at   time.Time
}
