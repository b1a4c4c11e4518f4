// Package tui provides the Bubble Tea terminal panel used by the watch
// command. It mirrors a display.Memory as a row of cards and binds the
// device toggles to keys.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hit2hat/rigpanel/internal/display"
)

// Config configures [Run].
type Config struct {
	Title   string
	Display *display.Memory
	// Cycles delivers poll outcomes for the footer. May be nil.
	Cycles  <-chan CycleMsg
	Actions Actions
	// Cancel is called when the user quits.
	Cancel context.CancelFunc
}

// Bridge forwards panel events to a running Bubble Tea program.
// Send is goroutine-safe, so the bridge may be fed from any goroutine.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a bridge that forwards events to program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Element forwards an element change.
func (b *Bridge) Element(u display.Update) {
	b.program.Send(ElementMsg(u))
}

// Cycle forwards a poll outcome.
func (b *Bridge) Cycle(c CycleMsg) {
	b.program.Send(c)
}

// forward pumps display updates and cycle outcomes into the program until
// ctx is done.
func (b *Bridge) forward(ctx context.Context, updates <-chan display.Update, cycles <-chan CycleMsg) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.Element(u)
		case c := <-cycles:
			b.Cycle(c)
		}
	}
}

// Run shows the panel until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := func() {
		cancel()
		if cfg.Cancel != nil {
			cfg.Cancel()
		}
	}

	// subscribe before snapshotting so no change falls in between
	updates := cfg.Display.Subscribe()
	defer cfg.Display.Unsubscribe(updates)

	model := NewModel(cfg.Title, cfg.Display.Elements(), cfg.Actions, quit)
	program := tea.NewProgram(model, tea.WithAltScreen())

	bridge := NewBridge(program)
	go bridge.forward(ctx, updates, cfg.Cycles)

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, err := program.Run()
	return err
}
