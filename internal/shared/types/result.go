package types

import "encoding/json"

// Result is the outcome of one execution pass. Exactly one of Success and
// Error is set.
type Result struct {
	Success bool
	Data    map[string]interface{}

	Error       bool
	Message     string
	Cause       *Failure
	Investigate bool
	Unhandled   bool
}

// Failure describes the underlying error attached to an error result
type Failure struct {
	Name    string                 `json:"name,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"ex,omitempty"`
}

// NewSuccess creates a success result carrying the given payload
func NewSuccess(data map[string]interface{}) Result {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Result{Success: true, Data: data}
}

// NewError creates an error result
func NewError(message string) Result {
	return Result{Error: true, Message: message}
}

// Fatal reports whether the attached failure asked to stop further passes
func (r Result) Fatal() bool {
	if r.Cause == nil {
		return false
	}
	fatal, _ := r.Cause.Params["fatal"].(bool)
	return fatal
}

// ToMap flattens the result into its wire shape
func (r Result) ToMap() map[string]interface{} {
	if r.Error {
		m := map[string]interface{}{
			"error":   true,
			"message": r.Message,
		}
		if r.Cause != nil {
			e := map[string]interface{}{"message": r.Cause.Message}
			if r.Cause.Name != "" {
				e["name"] = r.Cause.Name
			}
			if len(r.Cause.Params) > 0 {
				e["ex"] = r.Cause.Params
			}
			m["e"] = e
		}
		if r.Investigate {
			m["investigate"] = true
		}
		if r.Unhandled {
			m["unhandled"] = true
		}
		return m
	}

	m := make(map[string]interface{}, len(r.Data)+1)
	for k, v := range r.Data {
		m[k] = v
	}
	m["success"] = true
	return m
}

// ResultFromMap interprets a loosely typed result object. A truthy "error"
// field makes it an error result; everything else is a success payload.
func ResultFromMap(m map[string]interface{}) Result {
	if isTrue(m["error"]) {
		res := Result{Error: true}
		res.Message, _ = m["message"].(string)
		res.Investigate = isTrue(m["investigate"])
		res.Unhandled = isTrue(m["unhandled"])
		if e, ok := m["e"].(map[string]interface{}); ok {
			f := &Failure{}
			f.Name, _ = e["name"].(string)
			f.Message, _ = e["message"].(string)
			f.Params, _ = e["ex"].(map[string]interface{})
			res.Cause = f
		}
		return res
	}

	data := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "success" {
			continue
		}
		data[k] = v
	}
	return NewSuccess(data)
}

// MarshalJSON encodes the flat wire shape
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// UnmarshalJSON decodes the flat wire shape
func (r *Result) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = ResultFromMap(m)
	return nil
}

func isTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b != ""
	default:
		return false
	}
}
