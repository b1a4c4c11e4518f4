package tui

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hit2hat/rigpanel/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testElements() []display.Update {
	return []display.Update{
		{ID: "temperature"},
		{ID: "fuel"},
		{ID: "humidity"},
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel("", testElements(), Actions{}, nil)

	assert.Equal(t, "rigpanel", m.title)
	require.Len(t, m.elements, 3)
	assert.Equal(t, "fuel", m.elements[0].ID)
	assert.Equal(t, "humidity", m.elements[1].ID)
	assert.Equal(t, "temperature", m.elements[2].ID)
	assert.Nil(t, m.lastCycle)
	assert.Nil(t, m.Init())
}

func TestModel_ElementMsg(t *testing.T) {
	m := NewModel("Rover", testElements(), Actions{}, nil)

	newModel, cmd := m.Update(ElementMsg{ID: "fuel", Text: "73%"})
	m = newModel.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, "73%", m.elements[0].Text)
	assert.Contains(t, m.View(), "73%")
}

func TestModel_ElementMsgUnknownID(t *testing.T) {
	m := NewModel("Rover", testElements(), Actions{}, nil)

	newModel, _ := m.Update(ElementMsg{ID: "coords_x", Text: "12"})
	m = newModel.(Model)

	assert.Len(t, m.elements, 3)
	assert.NotContains(t, m.View(), "coords_x")
}

func TestModel_CycleMsg(t *testing.T) {
	m := NewModel("Rover", testElements(), Actions{}, nil)
	assert.Contains(t, m.View(), "waiting for first poll")

	newModel, _ := m.Update(CycleMsg{Seq: 4, Latency: 35 * time.Millisecond, Updated: 3, Skipped: 4})
	m = newModel.(Model)
	view := m.View()
	assert.Contains(t, view, "poll #4 ok")
	assert.Contains(t, view, "35ms, 3 updated, 4 skipped")

	newModel, _ = m.Update(CycleMsg{Seq: 5, Err: "metrics fetch failed: connection refused"})
	m = newModel.(Model)
	assert.Contains(t, m.View(), "poll #5 failed: metrics fetch failed: connection refused")
}

func TestModel_ToggleKeys(t *testing.T) {
	var door, charger atomic.Int32
	actions := Actions{
		ToggleDoor:    func() { door.Add(1) },
		ToggleCharger: func() { charger.Add(1) },
	}
	m := NewModel("Rover", testElements(), actions, nil)

	_, cmd := m.Update(keyMsg('d'))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, int32(1), door.Load())
	assert.Equal(t, int32(0), charger.Load())

	newModel, _ := m.Update(msg)
	m = newModel.(Model)
	assert.Contains(t, m.View(), "door toggle sent")

	_, cmd = m.Update(keyMsg('c'))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, int32(1), charger.Load())
}

func TestModel_ToggleKeysWithoutActions(t *testing.T) {
	m := NewModel("Rover", testElements(), Actions{}, nil)

	_, cmd := m.Update(keyMsg('d'))
	assert.Nil(t, cmd)
	_, cmd = m.Update(keyMsg('c'))
	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", keyMsg('q')},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cancelled := false
			m := NewModel("Rover", testElements(), Actions{}, func() { cancelled = true })

			newModel, cmd := m.Update(tt.msg)
			m = newModel.(Model)

			assert.True(t, cancelled)
			assert.True(t, m.quitting)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_ViewShowsPlaceholderForEmptyText(t *testing.T) {
	m := NewModel("Rover", []display.Update{{ID: "fuel"}}, Actions{}, nil)

	view := m.View()
	assert.Contains(t, view, "Rover")
	assert.Contains(t, view, "fuel")
	assert.Contains(t, view, "--")
}

func TestModel_ViewWrapsCards(t *testing.T) {
	m := NewModel("Rover", testElements(), Actions{}, nil)

	wide := m.View()
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: cardWidth + 2, Height: 40})
	m = newModel.(Model)
	narrow := m.View()

	assert.Greater(t, strings.Count(narrow, "\n"), strings.Count(wide, "\n"))
}

func TestBridge_ForwardStopsOnClosedUpdates(t *testing.T) {
	updates := make(chan display.Update)
	close(updates)

	done := make(chan struct{})
	go func() {
		b := &Bridge{}
		b.forward(t.Context(), updates, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not return")
	}
}
