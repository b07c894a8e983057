package options

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/goccy/go-yaml"
)

// field is one member of an object decoded with its position preserved
type field struct {
	key   string
	value interface{}
}

type orderedObject []field

// Parse decodes a JSON or YAML option document. The order of perDomain
// matchers is preserved.
func Parse(data []byte) (Tree, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Tree{}, nil
	}

	v, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return Tree{}, nil
	}

	t, ok := asTree(normalizeValue(v))
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidOption)
	}
	return t, nil
}

// Normalize converts a loosely typed value into a Tree. Strings are parsed
// as documents; maps get canonical key names.
func Normalize(v interface{}) (Tree, error) {
	switch val := v.(type) {
	case nil:
		return Tree{}, nil
	case string:
		return Parse([]byte(val))
	case []byte:
		return Parse(val)
	}

	t, ok := asTree(normalizeValue(v))
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidOption, v)
	}
	return t, nil
}

// UnmarshalJSON decodes a tree keeping perDomain order
func (t *Tree) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func decodeOrdered(data []byte) (interface{}, error) {
	if data[0] == '{' || data[0] == '[' {
		root, err := sonic.Get(data)
		if err != nil {
			return nil, fmt.Errorf("parse options: %w", err)
		}
		if err := root.LoadAll(); err != nil {
			return nil, fmt.Errorf("parse options: %w", err)
		}
		return fromNode(&root)
	}

	var v interface{}
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	return fromYAML(v), nil
}

func fromNode(n *ast.Node) (interface{}, error) {
	switch n.TypeSafe() {
	case ast.V_OBJECT:
		it, err := n.Properties()
		if err != nil {
			return nil, err
		}
		obj := orderedObject{}
		var p ast.Pair
		for it.Next(&p) {
			val, err := fromNode(&p.Value)
			if err != nil {
				return nil, err
			}
			obj = append(obj, field{key: p.Key, value: val})
		}
		return obj, nil
	case ast.V_ARRAY:
		it, err := n.Values()
		if err != nil {
			return nil, err
		}
		list := []interface{}{}
		var item ast.Node
		for it.Next(&item) {
			val, err := fromNode(&item)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case ast.V_STRING:
		return n.String()
	case ast.V_NUMBER:
		return n.Float64()
	case ast.V_TRUE:
		return true, nil
	case ast.V_FALSE:
		return false, nil
	default:
		return nil, nil
	}
}

func fromYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case yaml.MapSlice:
		obj := make(orderedObject, 0, len(val))
		for _, item := range val {
			obj = append(obj, field{key: fmt.Sprint(item.Key), value: fromYAML(item.Value)})
		}
		return obj
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = fromYAML(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = fromYAML(item)
		}
		return out
	case uint64:
		return float64(val)
	case int64:
		return float64(val)
	case int:
		return float64(val)
	default:
		return v
	}
}

// normalizeValue converts decoded values into Trees with canonical key names
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case orderedObject:
		out := make(Tree, len(val))
		for _, f := range val {
			name := canonical(f.key)
			if name == string(KeyPerDomain) {
				if d := toDomains(f.value); d != nil {
					out[name] = d
					continue
				}
			}
			out[name] = normalizeValue(f.value)
		}
		return out
	case Tree:
		return normalizeMap(val)
	case map[string]interface{}:
		return normalizeMap(val)
	case *Domains:
		return val.Clone()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]interface{}) Tree {
	out := make(Tree, len(m))
	for k, item := range m {
		name := canonical(k)
		if name == string(KeyPerDomain) {
			if d := toDomains(item); d != nil {
				out[name] = d
				continue
			}
		}
		out[name] = normalizeValue(item)
	}
	return out
}

// toDomains builds a perDomain section. Matcher keys are kept verbatim.
func toDomains(v interface{}) *Domains {
	switch val := v.(type) {
	case orderedObject:
		d := NewDomains()
		for _, f := range val {
			d.Set(f.key, normalizeValue(f.value))
		}
		return d
	case *Domains:
		return val.Clone()
	case Tree:
		return toDomains(map[string]interface{}(val))
	case map[string]interface{}:
		d := domainsFromMap(val)
		for _, k := range d.keys {
			d.entries[k] = normalizeValue(d.entries[k])
		}
		return d
	default:
		return nil
	}
}
