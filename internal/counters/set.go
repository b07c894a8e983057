package counters

import (
	"strings"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

const (
	// Auto enables every counter
	Auto = "--auto--"
	// AllowRest enables every counter not explicitly denied
	AllowRest = "+"

	allowSuffix = "+"
	denySuffix  = "-"
)

// Set is an ordered collection of accepted counter tokens
type Set struct {
	order   []string
	present map[string]struct{}
}

// NewSet registers the given tokens in order
func NewSet(tokens ...string) *Set {
	s := &Set{present: make(map[string]struct{})}
	for _, t := range tokens {
		s.Register(t)
	}
	return s
}

// FromPreferences builds the set from the ab$counters list, or from the
// legacy counter0..counter19 slots when the list is absent.
func FromPreferences(prefs types.Preferences) *Set {
	if list, ok := prefs.Strings(types.PrefCounters); ok && list != nil {
		return NewSet(list...)
	}
	return NewSet(prefs.LegacyCounters()...)
}

// Register adds a token. Unless the token is a deny token, every ancestor
// prefix is registered too so that partial-hierarchy queries succeed.
func (s *Set) Register(token string) {
	if token == "" {
		return
	}

	segments := strings.Split(token, ".")
	for n := len(segments); n > 0; n-- {
		name := strings.Join(segments[:n], ".")
		if _, ok := s.present[name]; ok {
			return
		}
		s.order = append(s.order, name)
		s.present[name] = struct{}{}

		if strings.HasSuffix(name, denySuffix) {
			return
		}
	}
}

// Available returns the accepted tokens in registration order
func (s *Set) Available() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of accepted tokens
func (s *Set) Len() int {
	return len(s.order)
}

// IsAvailable reports whether any of the tokens is available
func (s *Set) IsAvailable(tokens ...string) bool {
	for _, t := range tokens {
		if s.isAvailable(t) {
			return true
		}
	}
	return false
}

// IsAvailableAny reports whether any token of any group is available
func (s *Set) IsAvailableAny(groups ...[]string) bool {
	for _, g := range groups {
		if s.IsAvailable(g...) {
			return true
		}
	}
	return false
}

func (s *Set) has(name string) bool {
	_, ok := s.present[name]
	return ok
}

func (s *Set) isAvailable(token string) bool {
	if len(s.order) == 0 || s.has(Auto) {
		return true
	}

	segments := strings.Split(token, ".")
	for n := len(segments); n > 0; n-- {
		name := strings.Join(segments[:n], ".")

		// Exact matches count only at full depth
		if n == len(segments) && s.has(name) {
			return true
		}
		if s.has(name + allowSuffix) {
			return true
		}
		if s.has(name + denySuffix) {
			return false
		}
	}

	return s.has(AllowRest)
}
