package api

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/asybalance/internal/counters"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// CookiesKey is the account data key used by SaveCookies and RestoreCookies
const CookiesKey = "!@#AB_COOKIES"

// Config wires an API. Nil collaborators are served by the remote channel.
type Config struct {
	Preferences types.Preferences

	Inner   Inner
	Storage Storage
	Results ResultSink
	Tracer  Tracer

	Channel   Channel
	Signature string

	Converter Converter
	Recorder  Recorder
	Logger    *zap.Logger
}

// API is the per-session capability façade
type API struct {
	inner   Inner
	storage Storage
	results ResultSink
	tracer  Tracer

	converter Converter
	recorder  Recorder
	log       *zap.Logger

	mu              sync.Mutex
	prefs           types.Preferences
	view            types.Preferences
	available       *counters.Set
	resultSet       bool
	loginSuccessful bool
	executed        bool

	data      map[string]interface{}
	dataDirty bool
	loads     singleflight.Group
}

// New creates a façade for one session
func New(cfg Config) *API {
	remote := NewRemote(cfg.Channel, cfg.Signature)

	a := &API{
		inner:     cfg.Inner,
		storage:   cfg.Storage,
		results:   cfg.Results,
		tracer:    cfg.Tracer,
		converter: cfg.Converter,
		recorder:  cfg.Recorder,
		log:       cfg.Logger,
		prefs:     cfg.Preferences,
	}
	if a.inner == nil {
		a.inner = remote
	}
	if a.storage == nil {
		a.storage = remote
	}
	if a.results == nil {
		a.results = remote
	}
	if a.tracer == nil {
		a.tracer = remote
	}
	if a.recorder == nil {
		a.recorder = nopRecorder{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.prefs == nil {
		a.prefs = types.Preferences{}
	}
	a.view = a.prefs.Clone()
	return a
}

// Preferences returns the preferences as seen by the current pass
func (a *API) Preferences() types.Preferences {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view.Clone()
}

// RequestPost sends a request; the method defaults to POST
func (a *API) RequestPost(ctx context.Context, req requests.Request) (*Response, error) {
	a.recorder.RecordCall("requestPost")
	resp, err := a.inner.RequestPost(ctx, req)
	if err != nil {
		return nil, err
	}
	return NewResponse(resp), nil
}

// RequestGet sends a request with httpMethod GET unless the options name a
// method
func (a *API) RequestGet(ctx context.Context, url string, headers types.Pairs, opts options.Tree) (*Response, error) {
	opts = opts.Clone()
	if m, _ := opts[string(options.KeyHTTPMethod)].(string); m == "" {
		opts[string(options.KeyHTTPMethod)] = "GET"
	}
	return a.RequestPost(ctx, requests.Request{URL: url, Headers: headers, Options: opts})
}

// SetAuthentication applies credentials to subsequent requests
func (a *API) SetAuthentication(ctx context.Context, user, pass string, scope map[string]interface{}) error {
	a.recorder.RecordCall("setAuthentication")
	return a.inner.SetAuthentication(ctx, user, pass, scope)
}

// ClearAuthentication drops credentials set by SetAuthentication
func (a *API) ClearAuthentication(ctx context.Context) error {
	a.recorder.RecordCall("clearAuthentication")
	return a.inner.ClearAuthentication(ctx)
}

// SetCookie stores a cookie; a nil value deletes it
func (a *API) SetCookie(ctx context.Context, domain, name string, value *string, params types.CookieParams) error {
	a.recorder.RecordCall("setCookie")
	return a.inner.SetCookie(ctx, domain, name, value, params)
}

// GetCookies lists the session cookies
func (a *API) GetCookies(ctx context.Context) ([]types.Cookie, error) {
	a.recorder.RecordCall("getCookies")
	return a.inner.GetCookies(ctx)
}

// Sleep pauses the provider program
func (a *API) Sleep(ctx context.Context, d time.Duration) error {
	a.recorder.RecordCall("sleep")
	return a.inner.Sleep(ctx, d)
}

// RetrieveCode asks the operator for a verification code
func (a *API) RetrieveCode(ctx context.Context, prompt, image string, opts map[string]interface{}) (string, error) {
	a.recorder.RecordCall("retrieveCode")
	return a.inner.RetrieveCode(ctx, prompt, image, opts)
}

// SetOptions merges opts into the session options
func (a *API) SetOptions(ctx context.Context, opts options.Tree) error {
	a.recorder.RecordCall("setOptions")
	normalized, err := options.Normalize(opts)
	if err != nil {
		return err
	}
	return a.inner.SetOptions(ctx, normalized)
}

// SetDefaultCharset is a shorthand for SetOptions({defaultCharset: cs})
func (a *API) SetDefaultCharset(ctx context.Context, cs string) error {
	return a.SetOptions(ctx, options.Tree{string(options.KeyDefaultCharset): cs})
}

// GetCapabilities returns the host capability map
func (a *API) GetCapabilities(ctx context.Context) (map[string]interface{}, error) {
	a.recorder.RecordCall("getCapabilities")
	return a.inner.GetCapabilities(ctx)
}

// GetLevel returns the host API level
func (a *API) GetLevel(ctx context.Context) (int, error) {
	a.recorder.RecordCall("getLevel")
	return a.inner.GetLevel(ctx)
}

// Trace writes a diagnostic message
func (a *API) Trace(ctx context.Context, msg, caller string) error {
	return a.tracer.Trace(ctx, msg, caller)
}

// SetLoginSuccessful marks that credentials worked in this session
func (a *API) SetLoginSuccessful() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginSuccessful = true
}

// IsAvailable reports whether any of the counters is selected
func (a *API) IsAvailable(tokens ...string) bool {
	return a.counters().IsAvailable(tokens...)
}

// IsAvailableAny reports whether any counter of any group is selected
func (a *API) IsAvailableAny(groups ...[]string) bool {
	return a.counters().IsAvailableAny(groups...)
}

// GetAvailableCounters lists the accepted counter tokens
func (a *API) GetAvailableCounters() []string {
	return a.counters().Available()
}

func (a *API) counters() *counters.Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.available == nil {
		a.available = counters.FromPreferences(a.view)
	}
	return a.available
}

// EncodeBase64 encodes a buffer
func (a *API) EncodeBase64(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeBase64 decodes a base64 string
func (a *API) DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
