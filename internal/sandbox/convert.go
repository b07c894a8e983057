package sandbox

import (
	"github.com/bytedance/sonic"
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func absent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// exportValue exports v with JSON number semantics: every number becomes
// a float64
func exportValue(v goja.Value) interface{} {
	if absent(v) {
		return nil
	}
	return normalizeNumbers(v.Export())
}

func normalizeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// exportTree converts an option object, keeping perDomain order
func exportTree(v goja.Value) (options.Tree, error) {
	if absent(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return options.Normalize(v.String())
	}
	raw, err := obj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return options.Parse(raw)
}

// exportPairs converts a header or form bundle, keeping object key order
func exportPairs(v goja.Value) (types.Pairs, error) {
	if absent(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		var generic interface{}
		if err := sonic.UnmarshalString(v.String(), &generic); err != nil {
			return nil, err
		}
		return types.PairsFrom(generic)
	}
	if obj.ClassName() == "Array" {
		return types.PairsFrom(obj.Export())
	}

	keys := obj.Keys()
	out := make(types.Pairs, 0, len(keys))
	for _, k := range keys {
		item := obj.Get(k)
		value := ""
		if !absent(item) {
			value = item.String()
		}
		out = append(out, types.Pair{Name: k, Value: value})
	}
	return out, nil
}

// exportInto decodes v through JSON into out
func exportInto(v goja.Value, out interface{}) error {
	if absent(v) {
		return nil
	}
	raw, err := sonic.Marshal(v.Export())
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}

// toJS converts a Go value to plain JavaScript data through JSON
func (b *binding) toJS(v interface{}) goja.Value {
	raw, err := sonic.MarshalString(v)
	if err != nil {
		b.throw(err)
	}
	out, err := b.jsonParse(goja.Undefined(), b.vm.ToValue(raw))
	if err != nil {
		b.throw(err)
	}
	return out
}

func (b *binding) arrayBuffer(data []byte) goja.Value {
	return b.vm.ToValue(b.vm.NewArrayBuffer(data))
}

func bytesOf(v goja.Value) ([]byte, bool) {
	if absent(v) {
		return nil, false
	}
	switch buf := v.Export().(type) {
	case goja.ArrayBuffer:
		return buf.Bytes(), true
	case []byte:
		return buf, true
	default:
		return nil, false
	}
}
