package host

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/cookies"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/client"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Level is the capability level reported to provider programs
const Level = 1

// ErrCodeRetrievalUnsupported is returned by RetrieveCode without a retriever
var ErrCodeRetrievalUnsupported = errors.New("retrieveCode is not implemented")

// Retriever obtains a verification code from an operator
type Retriever interface {
	RetrieveCode(ctx context.Context, prompt, image string, opts map[string]interface{}) (string, error)
}

// Config configures a Host
type Config struct {
	Client       client.Config
	Options      options.Tree
	Retriever    Retriever
	Observer     requests.Observer
	Capabilities map[string]interface{}
	Logger       *zap.Logger
}

// credentials scoped to an optional host and port
type credentials struct {
	user, pass string
	host       string
	port       string
}

// Host serves one provider session
type Host struct {
	mu    sync.RWMutex
	opts  options.Tree
	auth  *credentials
	caps  map[string]interface{}
	jar   *cookies.Store
	http  *client.Client
	exec  *requests.Executor
	codes Retriever
	log   *zap.Logger
}

// New creates a host. The initial options must pass validation.
func New(cfg Config) (*Host, error) {
	opts, err := options.Normalize(cfg.Options)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Client.Timeout == 0 {
		defaults := client.DefaultConfig()
		if cfg.Client.UserAgent == "" {
			cfg.Client.UserAgent = defaults.UserAgent
		}
		cfg.Client.Timeout = defaults.Timeout
	}

	jar := cookies.New()
	c := client.NewClient(cfg.Client, jar)
	exec := requests.NewExecutor(c, log)
	exec.Observer = cfg.Observer

	caps := cfg.Capabilities
	if caps == nil {
		caps = map[string]interface{}{}
	}

	return &Host{
		opts:  opts,
		caps:  caps,
		jar:   jar,
		http:  c,
		exec:  exec,
		codes: cfg.Retriever,
		log:   log,
	}, nil
}

// Options returns a copy of the persistent options
func (h *Host) Options() options.Tree {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opts.Clone()
}

// Cookies exposes the session jar
func (h *Host) Cookies() *cookies.Store { return h.jar }

// RequestPost performs one outbound request
func (h *Host) RequestPost(ctx context.Context, req requests.Request) (*types.HTTPResponse, error) {
	h.mu.RLock()
	base := h.opts
	auth := h.auth
	h.mu.RUnlock()

	if auth != nil && auth.host != "" {
		if header, ok := auth.header(req.URL); ok && !req.Headers.Has("Authorization") {
			req.Headers = append(append(types.Pairs(nil), req.Headers...), types.Pair{Name: "Authorization", Value: header})
		}
	}
	return h.exec.Do(ctx, base, req)
}

// GetLevel reports the capability level
func (h *Host) GetLevel(context.Context) (int, error) { return Level, nil }

// SetAuthentication installs basic credentials. A scope with a host limits
// them to that destination.
func (h *Host) SetAuthentication(_ context.Context, user, pass string, scope map[string]interface{}) error {
	cred := &credentials{user: user, pass: pass}
	if scope != nil {
		cred.host, _ = scope["host"].(string)
		cred.host = strings.ToLower(cred.host)
		switch p := scope["port"].(type) {
		case string:
			cred.port = p
		case float64:
			cred.port = strconv.Itoa(int(p))
		case int:
			cred.port = strconv.Itoa(p)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.auth = cred
	if cred.host == "" {
		h.http.SetBasicAuth(user, pass)
	} else {
		h.http.ClearAuth()
	}
	h.log.Debug("Authentication set", zap.String("host", cred.host))
	return nil
}

// ClearAuthentication drops credentials
func (h *Host) ClearAuthentication(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.auth = nil
	h.http.ClearAuth()
	return nil
}

// SetCookie stores or deletes a cookie
func (h *Host) SetCookie(_ context.Context, domain, name string, value *string, params types.CookieParams) error {
	return h.jar.Set(domain, name, value, params)
}

// GetCookies lists the live cookies
func (h *Host) GetCookies(context.Context) ([]types.Cookie, error) {
	return h.jar.All(), nil
}

// SetOptions merges opts into the persistent options. Invalid results are
// rejected and leave the options unchanged.
func (h *Host) SetOptions(_ context.Context, opts options.Tree) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	merged := options.MergeNew(h.opts, opts)
	if err := merged.Validate(); err != nil {
		return err
	}
	h.opts = merged
	return nil
}

// Sleep blocks for d or until ctx is done
func (h *Host) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetrieveCode delegates to the configured retriever
func (h *Host) RetrieveCode(ctx context.Context, prompt, image string, opts map[string]interface{}) (string, error) {
	if h.codes == nil {
		return "", ErrCodeRetrievalUnsupported
	}
	return h.codes.RetrieveCode(ctx, prompt, image, opts)
}

// GetCapabilities returns the configured capability map
func (h *Host) GetCapabilities(context.Context) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(h.caps))
	for k, v := range h.caps {
		out[k] = v
	}
	return out, nil
}

// Close releases pooled connections
func (h *Host) Close() {
	h.http.Close()
}

func (c *credentials) header(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Hostname(), c.host) {
		return "", false
	}
	if c.port != "" {
		port := u.Port()
		if port == "" {
			port = defaultPort(u.Scheme)
		}
		if port != c.port {
			return "", false
		}
	}
	token := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.pass))
	return "Basic " + token, true
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
