package rigpanel

import "sort"

// UnitTable maps metric keys to the unit suffix appended when they are
// displayed.
//
// A UnitTable is immutable: [NewUnitTable] copies its input and no method
// modifies the table afterwards, so it is safe to share between goroutines.
// The zero value is an empty table.
type UnitTable struct {
	suffixes map[string]string
}

// NewUnitTable creates a [UnitTable] from a key to suffix mapping.
// The map is copied; later changes to it do not affect the table.
func NewUnitTable(suffixes map[string]string) UnitTable {
	return UnitTable{suffixes: copyMap(suffixes)}
}

// DefaultUnits returns the unit table for the rover's sensors:
// temperature in ℃, humidity and fuel in percent.
func DefaultUnits() UnitTable {
	return NewUnitTable(map[string]string{
		"temperature": "℃",
		"humidity":    "%",
		"fuel":        "%",
	})
}

// Suffix returns the unit registered for key.
// An empty suffix counts as not registered.
func (u UnitTable) Suffix(key string) (string, bool) {
	s := u.suffixes[key]
	return s, s != ""
}

// Format returns text followed by the unit for key, or text unchanged when
// key has no unit.
func (u UnitTable) Format(key, text string) string {
	if s, ok := u.Suffix(key); ok {
		return text + s
	}
	return text
}

// Keys returns the registered keys, sorted.
func (u UnitTable) Keys() []string {
	keys := make([]string, 0, len(u.suffixes))
	for k, s := range u.suffixes {
		if s != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the table as a plain map.
func (u UnitTable) Map() map[string]string {
	return copyMap(u.suffixes)
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
