package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Pair is a single name/value tuple. It serializes as a two element array.
type Pair struct {
	Name  string
	Value string
}

// MarshalJSON encodes the pair as ["name","value"]
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Name, p.Value})
}

// UnmarshalJSON decodes ["name","value"]
func (p *Pair) UnmarshalJSON(data []byte) error {
	var tuple []string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("pair must have exactly 2 elements, got %d", len(tuple))
	}
	p.Name, p.Value = tuple[0], tuple[1]
	return nil
}

// Pairs is an ordered list of tuples
type Pairs []Pair

// Get returns the value of the first pair whose name matches case-insensitively
func (ps Pairs) Get(name string) (string, bool) {
	for _, p := range ps {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether a pair with the given name exists
func (ps Pairs) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// Map returns the pairs as a map; later duplicates win
func (ps Pairs) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Name] = p.Value
	}
	return m
}

// PairsFrom converts a loosely typed bundle into Pairs. Accepted shapes are
// a list of two element lists, a string keyed map, or Pairs itself.
// Map keys are sorted to keep the order deterministic.
func PairsFrom(v interface{}) (Pairs, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case Pairs:
		return b, nil
	case []Pair:
		return Pairs(b), nil
	case map[string]string:
		keys := make([]string, 0, len(b))
		for k := range b {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Pairs, 0, len(b))
		for _, k := range keys {
			out = append(out, Pair{Name: k, Value: b[k]})
		}
		return out, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(b))
		for k := range b {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Pairs, 0, len(b))
		for _, k := range keys {
			out = append(out, Pair{Name: k, Value: stringify(b[k])})
		}
		return out, nil
	case []interface{}:
		out := make(Pairs, 0, len(b))
		for i, item := range b {
			tuple, ok := item.([]interface{})
			if !ok || len(tuple) != 2 {
				return nil, fmt.Errorf("bundle element %d must be a [name, value] pair", i)
			}
			out = append(out, Pair{Name: stringify(tuple[0]), Value: stringify(tuple[1])})
		}
		return out, nil
	case [][]string:
		out := make(Pairs, 0, len(b))
		for i, tuple := range b {
			if len(tuple) != 2 {
				return nil, fmt.Errorf("bundle element %d must be a [name, value] pair", i)
			}
			out = append(out, Pair{Name: tuple[0], Value: tuple[1]})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported bundle type %T", v)
	}
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
