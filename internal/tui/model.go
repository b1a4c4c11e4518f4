package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hit2hat/rigpanel/internal/display"
)

// Actions are the device commands bound to keys. Nil entries are ignored.
type Actions struct {
	ToggleDoor    func()
	ToggleCharger func()
}

// Model is the Bubble Tea model for the terminal panel.
type Model struct {
	title      string
	elements   []display.Update
	lastCycle  *CycleMsg
	lastAction *actionSentMsg
	actions    Actions
	cancelFunc context.CancelFunc
	width      int
	quitting   bool
}

// NewModel creates a model showing the given elements, in id order.
func NewModel(title string, elements []display.Update, actions Actions, cancelFunc context.CancelFunc) Model {
	if title == "" {
		title = "rigpanel"
	}
	els := append([]display.Update(nil), elements...)
	sort.Slice(els, func(i, j int) bool { return els[i].ID < els[j].ID })

	return Model{
		title:      title,
		elements:   els,
		actions:    actions,
		cancelFunc: cancelFunc,
	}
}

// Init returns the initial command for the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case ElementMsg:
		for i := range m.elements {
			if m.elements[i].ID == msg.ID {
				m.elements[i] = display.Update(msg)
				break
			}
		}
		return m, nil

	case CycleMsg:
		m.lastCycle = &msg
		return m, nil

	case actionSentMsg:
		m.lastAction = &msg
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "d":
		return m, fire("door", m.actions.ToggleDoor)

	case "c":
		return m, fire("charger", m.actions.ToggleCharger)

	case "q", "ctrl+c":
		if m.cancelFunc != nil {
			m.cancelFunc()
		}
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// fire runs a toggle outside the update loop and reports it back.
func fire(name string, toggle func()) tea.Cmd {
	if toggle == nil {
		return nil
	}
	return func() tea.Msg {
		toggle()
		return actionSentMsg{name: name, at: time.Now()}
	}
}

// View renders the panel.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderCards())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(footerStyle.Render("d: toggle door | c: toggle charger | q: quit"))
	sb.WriteString("\n")
	return sb.String()
}

// renderCards lays out one card per element, wrapping to the terminal width.
func (m Model) renderCards() string {
	if len(m.elements) == 0 {
		return footerStyle.Render("no elements declared")
	}

	perRow := len(m.elements)
	if m.width > 0 {
		// border adds two columns
		perRow = max(1, m.width/(cardWidth+2))
	}

	var rows []string
	for start := 0; start < len(m.elements); start += perRow {
		end := min(start+perRow, len(m.elements))
		cards := make([]string, 0, end-start)
		for _, el := range m.elements[start:end] {
			cards = append(cards, renderCard(el))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(el display.Update) string {
	value := emptyValueStyle.Render("--")
	if el.Text != "" {
		value = valueStyle.Render(el.Text)
	}
	return cardStyle.Render(labelStyle.Render(el.ID) + "\n" + value)
}

// renderStatus shows the last poll outcome and the last fired action.
func (m Model) renderStatus() string {
	var parts []string

	switch c := m.lastCycle; {
	case c == nil:
		parts = append(parts, footerStyle.Render("waiting for first poll"))
	case c.Err != "":
		parts = append(parts, failStyle.Render(fmt.Sprintf("poll #%d failed: %s", c.Seq, c.Err)))
	default:
		parts = append(parts, okStyle.Render(fmt.Sprintf("poll #%d ok", c.Seq))+
			footerStyle.Render(fmt.Sprintf(" %dms, %d updated, %d skipped",
				c.Latency.Milliseconds(), c.Updated, c.Skipped)))
	}

	if a := m.lastAction; a != nil {
		parts = append(parts, actionStyle.Render(fmt.Sprintf("%s toggle sent at %s", a.name, a.at.Format("15:04:05"))))
	}

	return strings.Join(parts, footerStyle.Render(" | "))
}
