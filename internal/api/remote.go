package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Channel carries one serialized call and returns the textual reply
type Channel interface {
	Call(ctx context.Context, request string) (string, error)
}

// ChannelFunc adapts a function to Channel
type ChannelFunc func(ctx context.Context, request string) (string, error)

// Call implements Channel
func (f ChannelFunc) Call(ctx context.Context, request string) (string, error) {
	return f(ctx, request)
}

type callRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type callReply struct {
	Payload json.RawMessage `json:"payload"`
	Error   interface{}     `json:"error"`
	Message string          `json:"message"`
}

// Remote serializes every capability call over a Channel. It implements
// Inner, Storage, ResultSink and Tracer.
type Remote struct {
	channel   Channel
	signature string
}

// NewRemote creates a remote adapter. signature is prepended to every
// request.
func NewRemote(ch Channel, signature string) *Remote {
	return &Remote{channel: ch, signature: signature}
}

// call sends method(params...) and decodes the payload into out
func (r *Remote) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	if r.channel == nil {
		return ErrStringGateNotSet
	}
	if params == nil {
		params = []interface{}{}
	}

	body, err := sonic.MarshalString(callRequest{Method: method, Params: params})
	if err != nil {
		return &SystemError{Message: "cannot encode call to '" + method + "'", Err: err}
	}

	reply, err := r.channel.Call(ctx, r.signature+body)
	if err != nil {
		return err
	}
	if reply == "" {
		return NewSystemError("Unexpected output from method '%s': (empty)", method)
	}
	if !strings.HasPrefix(reply, "{") {
		return &SystemError{Message: reply}
	}

	var resp callReply
	if err := sonic.UnmarshalString(reply, &resp); err != nil {
		return &SystemError{Message: "malformed reply from method '" + method + "': " + truncate(reply, 128), Err: err}
	}
	if truthy(resp.Error) {
		return &SystemError{Message: resp.Message}
	}
	if out == nil || len(resp.Payload) == 0 || string(resp.Payload) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(resp.Payload, out); err != nil {
		return &SystemError{Message: "unexpected payload from method '" + method + "'", Err: err}
	}
	return nil
}

// RequestPost implements Inner
func (r *Remote) RequestPost(ctx context.Context, req requests.Request) (*types.HTTPResponse, error) {
	var data interface{}
	opts := req.Options
	switch {
	case req.Body.Binary != nil:
		data = base64.StdEncoding.EncodeToString(req.Body.Binary)
		opts = opts.Clone()
		opts[string(options.KeyRequestCharset)] = "base64"
	case req.Body.Form != nil:
		data = req.Body.Form
	case req.Body.Text != nil:
		data = *req.Body.Text
	}

	var headers interface{}
	if req.Headers != nil {
		headers = req.Headers
	}
	var optsParam interface{}
	if opts != nil {
		optsParam = opts
	}

	var out types.HTTPResponse
	if err := r.call(ctx, "requestPost", &out, req.URL, data, req.Body.JSON || req.Body.Form != nil, headers, optsParam); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLevel implements Inner
func (r *Remote) GetLevel(ctx context.Context) (int, error) {
	var level int
	err := r.call(ctx, "getLevel", &level)
	return level, err
}

// SetAuthentication implements Inner
func (r *Remote) SetAuthentication(ctx context.Context, user, pass string, scope map[string]interface{}) error {
	var s interface{}
	if scope != nil {
		s = scope
	}
	return r.call(ctx, "setAuthentication", nil, user, pass, s)
}

// ClearAuthentication implements Inner
func (r *Remote) ClearAuthentication(ctx context.Context) error {
	return r.call(ctx, "clearAuthentication", nil)
}

// SetCookie implements Inner
func (r *Remote) SetCookie(ctx context.Context, domain, name string, value *string, params types.CookieParams) error {
	var v interface{}
	if value != nil {
		v = *value
	}
	return r.call(ctx, "setCookie", nil, domain, name, v, params)
}

// GetCookies implements Inner
func (r *Remote) GetCookies(ctx context.Context) ([]types.Cookie, error) {
	var out []types.Cookie
	err := r.call(ctx, "getCookies", &out)
	return out, err
}

// SetOptions implements Inner
func (r *Remote) SetOptions(ctx context.Context, opts options.Tree) error {
	return r.call(ctx, "setOptions", nil, opts)
}

// Sleep implements Inner
func (r *Remote) Sleep(ctx context.Context, d time.Duration) error {
	return r.call(ctx, "sleep", nil, d.Milliseconds())
}

// RetrieveCode implements Inner
func (r *Remote) RetrieveCode(ctx context.Context, prompt, image string, opts map[string]interface{}) (string, error) {
	var o interface{}
	if opts != nil {
		o = opts
	}
	var code string
	err := r.call(ctx, "retrieveCode", &code, prompt, image, o)
	return code, err
}

// GetCapabilities implements Inner
func (r *Remote) GetCapabilities(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := r.call(ctx, "getCapabilities", &out)
	return out, err
}

// LoadData implements Storage
func (r *Remote) LoadData(ctx context.Context) (string, error) {
	var data string
	err := r.call(ctx, "loadData", &data)
	return data, err
}

// SaveData implements Storage
func (r *Remote) SaveData(ctx context.Context, data string) error {
	return r.call(ctx, "saveData", nil, data)
}

// SetResult implements ResultSink
func (r *Remote) SetResult(ctx context.Context, res types.Result) error {
	return r.call(ctx, "setResult", nil, res.ToMap())
}

// Trace implements Tracer
func (r *Remote) Trace(ctx context.Context, msg, caller string) error {
	return r.call(ctx, "trace", nil, msg, caller)
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	default:
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
