package options

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Domains is the ordered perDomain section of a Tree
type Domains struct {
	keys     []string
	entries  map[string]interface{}
	matchers map[string]*regexp.Regexp
}

// NewDomains creates an empty section
func NewDomains() *Domains {
	return &Domains{
		entries:  make(map[string]interface{}),
		matchers: make(map[string]*regexp.Regexp),
	}
}

// Set stores the entry for a matcher, keeping the original position when the
// matcher already exists
func (d *Domains) Set(matcher string, entry interface{}) {
	if _, ok := d.entries[matcher]; !ok {
		d.keys = append(d.keys, matcher)
		if re := compileMatcher(matcher); re != nil {
			d.matchers[matcher] = re
		}
	}
	d.entries[matcher] = entry
}

// Delete removes a matcher
func (d *Domains) Delete(matcher string) {
	if _, ok := d.entries[matcher]; !ok {
		return
	}
	delete(d.entries, matcher)
	delete(d.matchers, matcher)
	for i, k := range d.keys {
		if k == matcher {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Get returns the raw entry stored for a matcher
func (d *Domains) Get(matcher string) (interface{}, bool) {
	v, ok := d.entries[matcher]
	return v, ok
}

// Tree returns the entry for a matcher when it is an object
func (d *Domains) Tree(matcher string) (Tree, bool) {
	return asTree(d.entries[matcher])
}

// Keys returns the matchers in insertion order
func (d *Domains) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of matchers
func (d *Domains) Len() int {
	return len(d.keys)
}

// Clone deep-copies the section
func (d *Domains) Clone() *Domains {
	out := NewDomains()
	for _, k := range d.keys {
		out.Set(k, cloneValue(d.entries[k]))
	}
	return out
}

// lookup resolves key for a host: exact matcher first, then patterns in
// insertion order
func (d *Domains) lookup(key, host string) (interface{}, bool) {
	if e, ok := d.Tree(host); ok {
		if v, ok := e[key]; ok {
			return v, true
		}
	}

	for _, k := range d.keys {
		re, ok := d.matchers[k]
		if !ok || !re.MatchString(host) {
			continue
		}
		if e, ok := d.Tree(k); ok {
			if v, ok := e[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (d *Domains) merge(overlay *Domains) {
	for _, k := range overlay.keys {
		v := overlay.entries[k]
		if v == nil {
			d.Delete(k)
			continue
		}

		obj, ok := asTree(v)
		if !ok {
			d.Set(k, cloneValue(v))
			continue
		}
		sub, ok := d.Tree(k)
		if !ok {
			sub = Tree{}
		}
		sub.Merge(obj)
		d.Set(k, sub)
	}
}

// MarshalJSON writes the entries in insertion order
func (d *Domains) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := sonic.Marshal(d.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order
func (d *Domains) UnmarshalJSON(data []byte) error {
	v, err := decodeOrdered(data)
	if err != nil {
		return err
	}
	parsed := toDomains(v)
	if parsed == nil {
		parsed = NewDomains()
	}
	*d = *parsed
	return nil
}

// compileMatcher turns a pattern matcher into a regular expression. Literal
// hosts return nil.
func compileMatcher(matcher string) *regexp.Regexp {
	var expr string
	switch {
	case strings.HasPrefix(matcher, "."):
		expr = `(?i)(^|\.)` + regexp.QuoteMeta(matcher[1:]) + `$`
	case len(matcher) >= 2 && strings.HasPrefix(matcher, "/") && strings.HasSuffix(matcher, "/"):
		expr = `(?i)` + matcher[1:len(matcher)-1]
	default:
		return nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re
}

// asDomains converts an object value to an ordered section. Plain maps carry
// no order, so their keys are sorted.
func asDomains(v interface{}) *Domains {
	switch m := v.(type) {
	case *Domains:
		return m
	case Tree:
		return domainsFromMap(m)
	case map[string]interface{}:
		return domainsFromMap(m)
	default:
		return nil
	}
}

func domainsFromMap(m map[string]interface{}) *Domains {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := NewDomains()
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}
