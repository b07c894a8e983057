package api

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/asybalance/internal/cookies"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// CookieQuery narrows GetCookie. All is an already fetched cookie list.
type CookieQuery struct {
	Domain string
	Path   string
	All    []types.Cookie
}

// GetCookie returns the value of the first matching cookie
func (a *API) GetCookie(ctx context.Context, name string, q CookieQuery) (string, bool, error) {
	list := q.All
	if list == nil {
		var err error
		list, err = a.GetCookies(ctx)
		if err != nil {
			return "", false, err
		}
	}
	v, ok := cookies.Lookup(list, name, q.Domain, q.Path)
	return v, ok, nil
}

// SaveCookies stores every session cookie in the account data under key,
// or CookiesKey when key is empty
func (a *API) SaveCookies(ctx context.Context, key string) error {
	if key == "" {
		key = CookiesKey
	}
	list, err := a.GetCookies(ctx)
	if err != nil {
		return err
	}
	if err := a.ensureData(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.dataDirty = true
	a.mu.Unlock()

	// Stored in the same generic shape a JSON round trip produces
	generic, err := toGeneric(list)
	if err != nil {
		return err
	}
	return a.SetData(ctx, key, generic)
}

// RestoreCookies re-applies cookies saved under key (CookiesKey when empty)
func (a *API) RestoreCookies(ctx context.Context, key string) error {
	if key == "" {
		key = CookiesKey
	}
	saved, err := a.GetData(ctx, key, nil)
	if err != nil {
		return err
	}
	if saved == nil {
		return nil
	}

	var list []types.Cookie
	if err := fromGeneric(saved, &list); err != nil {
		return fmt.Errorf("restore cookies: %w", err)
	}
	return a.RestoreCookieList(ctx, list)
}

// RestoreCookieList applies a literal cookie list one cookie at a time
func (a *API) RestoreCookieList(ctx context.Context, list []types.Cookie) error {
	for _, c := range list {
		value := c.Value
		if err := a.SetCookie(ctx, c.Domain, c.Name, &value, c.Params()); err != nil {
			return err
		}
	}
	return nil
}

func toGeneric(v interface{}) (interface{}, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromGeneric(v interface{}, out interface{}) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}
