package types

// Cookie is a cookie store entry as seen by a guest program. Domain cookies
// carry a leading dot; host-only cookies do not.
type Cookie struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	Value      string `json:"value"`
	Path       string `json:"path,omitempty"`
	Expires    string `json:"expires,omitempty"`
	Secure     bool   `json:"secure,omitempty"`
	HTTPOnly   bool   `json:"httpOnly,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
}

// CookieParams are the optional attributes of a set-cookie call
type CookieParams struct {
	Path       string `json:"path,omitempty"`
	Expires    string `json:"expires,omitempty"`
	Secure     bool   `json:"secure,omitempty"`
	HTTPOnly   bool   `json:"httpOnly,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
}

// Params extracts the set-cookie attributes of a stored cookie
func (c Cookie) Params() CookieParams {
	return CookieParams{
		Path:       c.Path,
		Expires:    c.Expires,
		Secure:     c.Secure,
		HTTPOnly:   c.HTTPOnly,
		Persistent: c.Persistent,
	}
}
