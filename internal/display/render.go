package display

import "sort"

// Report summarises one render pass.
type Report struct {
	// Updated lists the keys written to an element, sorted.
	Updated []string
	// Skipped lists the keys that had no matching element, sorted.
	Skipped []string
}

// Render writes every value into the element whose id equals its key.
//
// The displayed text is f.Format(key, text); a nil f leaves the text as is.
// Keys with no matching element are recorded in [Report.Skipped] and cause
// no mutation. Keys are independent, so iteration order does not matter.
// Rendering the same values twice leaves the display in the same state as
// rendering them once.
func Render(d Display, values map[string]string, f Formatter) Report {
	var r Report
	for key, text := range values {
		el, ok := d.Lookup(key)
		if !ok {
			r.Skipped = append(r.Skipped, key)
			continue
		}
		if f != nil {
			text = f.Format(key, text)
		}
		el.SetText(text)
		r.Updated = append(r.Updated, key)
	}
	sort.Strings(r.Updated)
	sort.Strings(r.Skipped)
	return r
}
