package cookies

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

type entry struct {
	name     string
	value    string
	domain   string
	path     string
	hostOnly bool
	secure   bool
	httpOnly bool
	expires  time.Time
	seq      uint64
}

func (e *entry) key() string {
	return e.domain + ";" + e.path + ";" + e.name
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !e.expires.After(now)
}

// Store is a session-local cookie jar
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
	now     func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// SetCookies records cookies received in a response from u
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host, err := canonicalHost(u.Host)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, c := range cookies {
		e, ok := s.fromResponse(c, host, u, now)
		if !ok {
			continue
		}
		s.store(e, now)
	}
}

// Cookies returns the cookies to send in a request to u
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	host, err := canonicalHost(u.Host)
	if err != nil {
		return nil
	}
	secure := u.Scheme == "https" || u.Scheme == "wss"
	path := u.Path
	if path == "" {
		path = "/"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var selected []*entry
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			continue
		}
		if e.secure && !secure {
			continue
		}
		if !e.matchesHost(host) || !pathMatch(path, e.path) {
			continue
		}
		selected = append(selected, e)
	}

	sort.Slice(selected, func(i, j int) bool {
		if len(selected[i].path) != len(selected[j].path) {
			return len(selected[i].path) > len(selected[j].path)
		}
		return selected[i].seq < selected[j].seq
	})

	out := make([]*http.Cookie, 0, len(selected))
	for _, e := range selected {
		out = append(out, &http.Cookie{Name: e.name, Value: e.value})
	}
	return out
}

// Set stores a cookie on behalf of a provider program. A nil value deletes
// the cookie. A leading dot in domain makes it a domain cookie.
func (s *Store) Set(domain, name string, value *string, params types.CookieParams) error {
	e := &entry{
		name:     name,
		domain:   strings.ToLower(domain),
		path:     params.Path,
		hostOnly: true,
		secure:   params.Secure,
		httpOnly: params.HTTPOnly,
	}
	if strings.HasPrefix(e.domain, ".") {
		e.hostOnly = false
		e.domain = e.domain[1:]
	}
	if e.path == "" || !strings.HasPrefix(e.path, "/") {
		e.path = "/"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	switch {
	case value == nil:
		e.expires = time.Unix(0, int64(time.Millisecond))
	case params.Expires != "":
		t, err := ParseExpires(params.Expires)
		if err != nil {
			return err
		}
		e.value = *value
		e.expires = t
	default:
		e.value = *value
	}

	s.store(e, now)
	return nil
}

// All lists every live cookie in insertion order
func (s *Store) All() []types.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	live := make([]*entry, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			continue
		}
		live = append(live, e)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].seq < live[j].seq })

	out := make([]types.Cookie, 0, len(live))
	for _, e := range live {
		c := types.Cookie{
			Name:     e.name,
			Value:    e.value,
			Domain:   e.domain,
			Path:     e.path,
			Secure:   e.secure,
			HTTPOnly: e.httpOnly,
		}
		if !e.hostOnly && c.Domain != "" {
			c.Domain = "." + c.Domain
		}
		if c.Path == "" {
			c.Path = "/"
		}
		if !e.expires.IsZero() {
			c.Expires = e.expires.UTC().Format(http.TimeFormat)
			c.Persistent = true
		}
		out = append(out, c)
	}
	return out
}

// Clear drops every cookie
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// store replaces or removes an entry. Expired entries delete their
// predecessor.
func (s *Store) store(e *entry, now time.Time) {
	k := e.key()
	old, exists := s.entries[k]
	if e.expired(now) {
		delete(s.entries, k)
		return
	}
	if exists {
		e.seq = old.seq
	} else {
		s.seq++
		e.seq = s.seq
	}
	s.entries[k] = e
}

func (s *Store) fromResponse(c *http.Cookie, host string, u *url.URL, now time.Time) (*entry, bool) {
	if c.Name == "" {
		return nil, false
	}

	e := &entry{
		name:     c.Name,
		value:    c.Value,
		path:     c.Path,
		secure:   c.Secure,
		httpOnly: c.HttpOnly,
	}
	if e.path == "" || !strings.HasPrefix(e.path, "/") {
		e.path = defaultPath(u.Path)
	}

	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	switch {
	case domain == "" || domain == host:
		e.domain = host
		e.hostOnly = domain == ""
	case isIP(host):
		return nil, false
	case !strings.HasSuffix(host, "."+domain):
		return nil, false
	default:
		if ps, _ := publicsuffix.PublicSuffix(domain); ps == domain {
			return nil, false
		}
		e.domain = domain
	}

	switch {
	case c.MaxAge < 0:
		e.expires = now.Add(-time.Second)
	case c.MaxAge > 0:
		e.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		e.expires = c.Expires
	}
	return e, true
}

func (e *entry) matchesHost(host string) bool {
	if e.hostOnly {
		return host == e.domain
	}
	return host == e.domain || strings.HasSuffix(host, "."+e.domain)
}

func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func canonicalHost(host string) (string, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", errEmptyHost
	}
	return host, nil
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}
