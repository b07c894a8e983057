package cookies

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

var errEmptyHost = errors.New("cookie host is empty")

// ErrBadExpiry is returned for cookie expiry strings that cannot be parsed
var ErrBadExpiry = errors.New("unrecognized cookie expiry")

var expiryLayouts = []string{
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	time.RFC3339Nano,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon Jan 02 2006",
	"2006-01-02",
}

// ParseExpires accepts the expiry formats seen in saved cookie lists
func ParseExpires(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadExpiry, s)
}

// Lookup finds the value of a named cookie in a list. When given, domain and
// path must start with the cookie's own domain and path.
func Lookup(list []types.Cookie, name, domain, path string) (string, bool) {
	domain = strings.ToLower(domain)
	for _, c := range list {
		if c.Name != name {
			continue
		}
		if domain != "" && (c.Domain == "" || !strings.HasPrefix(domain, c.Domain)) {
			continue
		}
		if path != "" && (c.Path == "" || !strings.HasPrefix(path, c.Path)) {
			continue
		}
		return c.Value, true
	}
	return "", false
}
