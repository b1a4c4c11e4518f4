package display

import "time"

// Element is a single addressable text slot, identified by its id.
type Element interface {
	// ID returns the element identifier. Metric keys address elements by id.
	ID() string
	// SetText replaces the displayed text.
	SetText(text string)
	// Text returns the currently displayed text.
	Text() string
}

// Display resolves element ids to elements.
//
// Lookup returns false when no element with the given id exists. Callers
// treat that as "nothing to update", never as an error.
type Display interface {
	Lookup(id string) (Element, bool)
}

// Formatter turns a metric key and its raw text into display text.
//
// rigpanel.UnitTable is the production implementation; it appends a unit
// suffix for registered keys.
type Formatter interface {
	Format(key, text string) string
}

// Update is published to subscribers whenever an element's text changes.
type Update struct {
	// ID is the element identifier.
	ID string `json:"id"`
	// Text is the new displayed text.
	Text string `json:"text"`
	// UpdatedAt is when the text was last changed. Zero if never written.
	UpdatedAt time.Time `json:"updated_at"`
}
