package poller

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Snapshot is one decoded metrics payload: metric key to value.
//
// A Snapshot is produced fresh by every cycle and never reused; it fully
// replaces whatever the previous cycle decoded.
type Snapshot map[string]Value

// Value is a single metric value as received on the wire.
type Value struct {
	raw json.RawMessage
}

// Decode parses a metrics response body.
//
// The body must be a JSON object. Arrays, scalars, null and malformed input
// are rejected.
func Decode(body []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] != '{' {
		return nil, errors.New("payload is not a JSON object")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}

	snap := make(Snapshot, len(raw))
	for k, v := range raw {
		snap[k] = Value{raw: v}
	}
	return snap, nil
}

// Texts returns the display text of every value, keyed by metric key.
func (s Snapshot) Texts() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v.Text()
	}
	return out
}

// Text renders the value for display.
//
// Strings are returned verbatim and numbers in their shortest decimal form
// (21, 21.5, 1000). Booleans and null render as their JSON literal; objects
// and arrays as compact JSON.
func (v Value) Text() string {
	raw := bytes.TrimSpace(v.raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	case 't', 'f', 'n':
		return string(raw)
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err == nil {
			return formatNumber(f)
		}
	}
	return string(raw)
}

func formatNumber(f float64) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
