package options

import (
	"errors"
	"fmt"
)

// ErrInvalidOption is returned when a recognized option has the wrong shape
var ErrInvalidOption = errors.New("invalid option")

// Tree is a nested option configuration
type Tree map[string]interface{}

// Domains returns the perDomain section, or nil
func (t Tree) Domains() *Domains {
	return asDomains(t[string(KeyPerDomain)])
}

// Resolve returns the effective value of key for a destination host.
// The second value is false when neither a domain entry nor a global value
// exists.
func (t Tree) Resolve(key Key, host string) (interface{}, bool) {
	if d := t.Domains(); d != nil && host != "" {
		if v, ok := d.lookup(string(key), host); ok {
			return v, true
		}
	}
	v, ok := t[string(key)]
	return v, ok
}

// String resolves a string option, returning "" when unset
func (t Tree) String(key Key, host string) string {
	v, _ := t.Resolve(key, host)
	s, _ := v.(string)
	return s
}

// Strings resolves a list option. The second value reports whether the
// option was set to a list.
func (t Tree) Strings(key Key, host string) ([]string, bool) {
	v, _ := t.Resolve(key, host)
	switch list := v.(type) {
	case []string:
		return list, true
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone deep-copies the tree
func (t Tree) Clone() Tree {
	if t == nil {
		return Tree{}
	}
	return cloneValue(t).(Tree)
}

// Merge applies overlay onto t in place
func (t Tree) Merge(overlay Tree) {
	for k, v := range overlay {
		if v == nil {
			delete(t, k)
			continue
		}

		if k == string(KeyPerDomain) {
			if od := asDomains(v); od != nil {
				d := t.Domains()
				if d == nil {
					d = NewDomains()
				}
				d.merge(od)
				t[k] = d
				continue
			}
		}

		obj, ok := asTree(v)
		if !ok {
			t[k] = cloneValue(v)
			continue
		}
		sub, ok := asTree(t[k])
		if !ok {
			sub = Tree{}
		}
		sub.Merge(obj)
		t[k] = sub
	}
}

// MergeNew returns base with overlay applied, leaving both untouched
func MergeNew(base, overlay Tree) Tree {
	out := base.Clone()
	out.Merge(overlay)
	return out
}

// Overlay builds the per-call option overlay from request options. Top-level
// keys other than "options" apply directly and the nested "options" object
// is layered on top of them.
func Overlay(request Tree) Tree {
	out := Tree{}
	for k, v := range request {
		if k == string(KeyOptions) {
			continue
		}
		out[k] = v
	}
	if nested, ok := asTree(request[string(KeyOptions)]); ok {
		out.Merge(nested)
	}
	return out
}

// Validate checks the recognized keys whose correctness matters
func (t Tree) Validate() error {
	if err := validateCharsets(t, ""); err != nil {
		return err
	}
	d := t.Domains()
	if d == nil {
		return nil
	}
	for _, k := range d.keys {
		if e, ok := d.Tree(k); ok {
			if err := validateCharsets(e, k); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCharsets(t Tree, domain string) error {
	for _, key := range charsetKeys {
		v, ok := t[string(key)]
		if !ok || v == nil {
			continue
		}
		if _, ok := v.(string); !ok {
			if domain != "" {
				return fmt.Errorf("%w: %s for %s must be a string", ErrInvalidOption, key, domain)
			}
			return fmt.Errorf("%w: %s must be a string", ErrInvalidOption, key)
		}
	}
	return nil
}

// asTree reports whether v is an object value
func asTree(v interface{}) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]interface{}:
		return Tree(m), true
	default:
		return nil, false
	}
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Tree:
		out := make(Tree, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]interface{}:
		return cloneValue(Tree(val))
	case *Domains:
		return val.Clone()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
