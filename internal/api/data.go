package api

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// ensureData loads the account data once. Concurrent callers share the
// pending load; the data is installed before the flight ends so no later
// caller starts a second one.
func (a *API) ensureData(ctx context.Context) error {
	if a.dataLoaded() {
		return nil
	}

	_, err, _ := a.loads.Do("data", func() (interface{}, error) {
		if a.dataLoaded() {
			return nil, nil
		}
		blob, err := a.storage.LoadData(ctx)
		if err != nil {
			return nil, err
		}
		data := map[string]interface{}{}
		if blob != "" {
			if err := sonic.UnmarshalString(blob, &data); err != nil {
				return nil, fmt.Errorf("decode account data: %w", err)
			}
			if data == nil {
				data = map[string]interface{}{}
			}
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.data == nil {
			a.data = data
		}
		return nil, nil
	})
	return err
}

func (a *API) dataLoaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data != nil
}

// GetData returns a stored value or def when the name is absent. A stored
// nil is returned as nil.
func (a *API) GetData(ctx context.Context, name string, def interface{}) (interface{}, error) {
	v, ok, err := a.LookupData(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// LookupData returns a stored value and whether the name is present
func (a *API) LookupData(ctx context.Context, name string) (interface{}, bool, error) {
	if err := a.ensureData(ctx); err != nil {
		return nil, false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.data[name]
	return v, ok, nil
}

// SetData stores a value. Data becomes dirty only when the value changes.
func (a *API) SetData(ctx context.Context, name string, value interface{}) error {
	if err := a.ensureData(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.data[name]
	if ok && sameValue(old, value) {
		return nil
	}
	a.data[name] = value
	a.dataDirty = true
	return nil
}

// SaveData persists the data when dirty or forced
func (a *API) SaveData(ctx context.Context, force bool) error {
	if err := a.ensureData(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	dirty := a.dataDirty
	var blob string
	var err error
	if dirty || force {
		blob, err = sonic.MarshalString(a.data)
	}
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode account data: %w", err)
	}

	if dirty || force {
		if err := a.storage.SaveData(ctx, blob); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.dataDirty = false
	a.mu.Unlock()
	return nil
}

// ClearData empties the data and marks it dirty
func (a *API) ClearData() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = map[string]interface{}{}
	a.dataDirty = true
}

// IsDataDirty reports whether there are unsaved changes
func (a *API) IsDataDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dataDirty
}

// sameValue compares primitives by value. Objects and lists are never
// considered equal since they may have been mutated in place.
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
