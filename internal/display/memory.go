package display

import (
	"sort"
	"sync"
	"time"
)

const subscriberBuffer = 100

// Memory is an in-memory [Display] holding a fixed set of declared elements.
//
// Memory is safe for concurrent use. Only ids passed to [NewMemory] resolve;
// every other id is reported as absent by [Memory.Lookup]. Text changes are
// published to subscribers via buffered channels (buffer size 100). Sends are
// non-blocking; a subscriber whose buffer is full misses the update.
type Memory struct {
	mu       sync.RWMutex
	elements map[string]Update

	subMu       sync.RWMutex
	subscribers map[chan Update]struct{}
}

// NewMemory creates a [Memory] display with one empty element per id.
// Duplicate and empty ids are ignored.
func NewMemory(ids ...string) *Memory {
	m := &Memory{
		elements:    make(map[string]Update, len(ids)),
		subscribers: make(map[chan Update]struct{}),
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		m.elements[id] = Update{ID: id}
	}
	return m
}

// Lookup returns the element with the given id.
func (m *Memory) Lookup(id string) (Element, bool) {
	m.mu.RLock()
	_, ok := m.elements[id]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return &memoryElement{id: id, m: m}, true
}

// Elements returns the current state of every element, sorted by id.
//
// The returned slice is a copy; modifications do not affect the display.
func (m *Memory) Elements() []Update {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Update, 0, len(m.elements))
	for _, el := range m.elements {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the declared element ids, sorted.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.elements))
	for id := range m.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe creates a new subscription and returns a channel for receiving
// element updates.
//
// Caller must call [Memory.Unsubscribe] when done to prevent resource leaks.
func (m *Memory) Subscribe() <-chan Update {
	ch := make(chan Update, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *Memory) Unsubscribe(ch <-chan Update) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// setText stores text for id and notifies subscribers when it changed.
func (m *Memory) setText(id, text string) {
	m.mu.Lock()
	el, ok := m.elements[id]
	if !ok || (el.Text == text && !el.UpdatedAt.IsZero()) {
		m.mu.Unlock()
		return
	}
	el.Text = text
	el.UpdatedAt = time.Now()
	m.elements[id] = el
	m.mu.Unlock()

	m.notifySubscribers(el)
}

func (m *Memory) text(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.elements[id].Text
}

// notifySubscribers drops the update for any subscriber whose buffer is full.
func (m *Memory) notifySubscribers(u Update) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

type memoryElement struct {
	id string
	m  *Memory
}

func (e *memoryElement) ID() string          { return e.id }
func (e *memoryElement) SetText(text string) { e.m.setText(e.id, text) }
func (e *memoryElement) Text() string        { return e.m.text(e.id) }
