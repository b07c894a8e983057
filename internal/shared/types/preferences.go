package types

import "fmt"

// Preference keys with host-defined meaning
const (
	PrefCounters         = "ab$counters"
	PrefCountersSet      = "ab$countersSet"
	PrefCountersSetIndex = "ab$countersSetIndex"

	// LegacyCounterSlots is the number of counterN preferences scanned
	// when no ab$counters list is present.
	LegacyCounterSlots = 20
)

// Preferences is the account-scoped settings bag supplied at session start
type Preferences map[string]interface{}

// Clone returns a shallow copy
func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns a string preference or ""
func (p Preferences) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Strings returns a list preference. The second value is false when the key
// is absent or not a list.
func (p Preferences) Strings(key string) ([]string, bool) {
	return toStrings(p[key])
}

// CountersSet returns the ab$countersSet list of counter selections
func (p Preferences) CountersSet() ([][]string, bool) {
	switch v := p[PrefCountersSet].(type) {
	case [][]string:
		return v, true
	case []interface{}:
		out := make([][]string, 0, len(v))
		for _, item := range v {
			sel, ok := toStrings(item)
			if !ok {
				sel = nil
			}
			out = append(out, sel)
		}
		return out, true
	default:
		return nil, false
	}
}

// LegacyCounters returns the values of counter0..counter19 in slot order
func (p Preferences) LegacyCounters() []string {
	out := make([]string, 0, LegacyCounterSlots)
	for i := 0; i < LegacyCounterSlots; i++ {
		out = append(out, p.String(fmt.Sprintf("counter%d", i)))
	}
	return out
}

func toStrings(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
