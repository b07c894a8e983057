package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

type routeKey struct{}

// Route selects the proxy and TLS policy used for one request
type Route struct {
	Proxy string
	TLS   *TLSPolicy
}

// WithRoute attaches a route to ctx
func WithRoute(ctx context.Context, r Route) context.Context {
	return context.WithValue(ctx, routeKey{}, r)
}

// RouteFrom returns the route attached to ctx
func RouteFrom(ctx context.Context) (Route, bool) {
	r, ok := ctx.Value(routeKey{}).(Route)
	return r, ok
}

func (r Route) key() string {
	k := r.Proxy
	if r.TLS != nil {
		k += "|" + r.TLS.key()
	}
	return k
}

// TLSPolicy restricts protocol versions and cipher suites. Names follow the
// JSSE spelling ("TLSv1.2") and IANA suite names.
type TLSPolicy struct {
	Protocols    []string
	CipherSuites []string
}

var protocolVersions = map[string]uint16{
	"TLSv1":   tls.VersionTLS10,
	"TLSv1.0": tls.VersionTLS10,
	"TLSv1.1": tls.VersionTLS11,
	"TLSv1.2": tls.VersionTLS12,
	"TLSv1.3": tls.VersionTLS13,
}

// DefaultProtocols are enabled when no protocol list is configured
var DefaultProtocols = []string{"TLSv1.2", "TLSv1.3"}

func (p *TLSPolicy) key() string {
	return strings.Join(p.Protocols, ",") + "/" + strings.Join(p.CipherSuites, ",")
}

// Apply restricts cfg according to the policy
func (p *TLSPolicy) Apply(cfg *tls.Config) error {
	if len(p.Protocols) > 0 {
		var min, max uint16
		for _, name := range p.Protocols {
			v, ok := protocolVersions[name]
			if !ok {
				continue
			}
			if min == 0 || v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if min == 0 {
			return fmt.Errorf("no supported TLS protocol in %v", p.Protocols)
		}
		cfg.MinVersion = min
		cfg.MaxVersion = max
	}

	if len(p.CipherSuites) > 0 {
		ids := make([]uint16, 0, len(p.CipherSuites))
		for _, name := range p.CipherSuites {
			if id, ok := cipherSuiteID(name); ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.CipherSuites = ids
		}
	}
	return nil
}

// ComposeList applies add and remove lists to a base list, keeping order
func ComposeList(base, add, remove []string) []string {
	removed := make(map[string]bool, len(remove))
	for _, r := range remove {
		removed[r] = true
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, item := range list {
			if removed[item] || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func cipherSuiteID(name string) (uint16, bool) {
	for _, s := range tls.CipherSuites() {
		if s.Name == name {
			return s.ID, true
		}
	}
	for _, s := range tls.InsecureCipherSuites() {
		if s.Name == name {
			return s.ID, true
		}
	}
	return 0, false
}

// router picks a transport per route, creating one per distinct policy
type router struct {
	base     *http.Transport
	insecure bool

	mu         sync.Mutex
	transports map[string]*http.Transport
}

func newRouter(base *http.Transport, insecure bool) *router {
	base = base.Clone()
	if insecure {
		if base.TLSClientConfig == nil {
			base.TLSClientConfig = &tls.Config{}
		}
		base.TLSClientConfig.InsecureSkipVerify = true
	}
	return &router{
		base:       base,
		insecure:   insecure,
		transports: make(map[string]*http.Transport),
	}
}

// RoundTrip implements http.RoundTripper
func (r *router) RoundTrip(req *http.Request) (*http.Response, error) {
	route, ok := RouteFrom(req.Context())
	if !ok || (route.Proxy == "" && route.TLS == nil) {
		return r.base.RoundTrip(req)
	}

	t, err := r.transport(route)
	if err != nil {
		return nil, err
	}
	return t.RoundTrip(req)
}

func (r *router) transport(route Route) (*http.Transport, error) {
	k := route.key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.transports[k]; ok {
		return t, nil
	}

	t := r.base.Clone()
	if route.Proxy != "" {
		proxyURL, err := parseProxy(route.Proxy)
		if err != nil {
			return nil, err
		}
		t.Proxy = http.ProxyURL(proxyURL)
	}
	if route.TLS != nil {
		cfg := &tls.Config{InsecureSkipVerify: r.insecure}
		if t.TLSClientConfig != nil {
			cfg = t.TLSClientConfig.Clone()
		}
		if err := route.TLS.Apply(cfg); err != nil {
			return nil, err
		}
		t.TLSClientConfig = cfg
	}

	r.transports[k] = t
	return t, nil
}

func (r *router) closeIdle() {
	r.base.CloseIdleConnections()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transports {
		t.CloseIdleConnections()
	}
}

// parseProxy accepts "host:port" as well as full proxy URLs
func parseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return u, nil
}
