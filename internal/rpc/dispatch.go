package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// ErrMethodNotSupported is replied for calls the backend cannot serve
var ErrMethodNotSupported = errors.New("method not supported")

// Backend holds the collaborators a Dispatcher serves. Nil members make
// their methods unsupported.
type Backend struct {
	Inner   api.Inner
	Storage api.Storage
	Results api.ResultSink
	Tracer  api.Tracer
}

// Dispatcher decodes serialized capability calls and runs them against a
// Backend. It is the owner-side counterpart of api.Remote.
type Dispatcher struct {
	signature string
	backend   Backend
	log       *zap.Logger
}

// NewDispatcher creates a dispatcher that accepts calls prefixed with
// signature
func NewDispatcher(signature string, backend Backend, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{signature: signature, backend: backend, log: log}
}

type wireCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// Respond implements Responder
func (d *Dispatcher) Respond(ctx context.Context, request string) string {
	if !strings.HasPrefix(request, d.signature) {
		return errorReply(errors.New("bad call signature"))
	}

	var call wireCall
	if err := sonic.UnmarshalString(strings.TrimPrefix(request, d.signature), &call); err != nil {
		return errorReply(fmt.Errorf("malformed call: %w", err))
	}

	start := time.Now()
	payload, err := d.dispatch(ctx, call.Method, params(call.Params))
	d.log.Debug("Call dispatched",
		zap.String("method", call.Method),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return errorReply(err)
	}

	reply, err := sonic.MarshalString(map[string]interface{}{"payload": payload})
	if err != nil {
		return errorReply(err)
	}
	return reply
}

func (d *Dispatcher) dispatch(ctx context.Context, method string, p params) (interface{}, error) {
	b := d.backend
	switch method {
	case "loadData", "saveData":
		if b.Storage == nil {
			return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
		}
		if method == "loadData" {
			return b.Storage.LoadData(ctx)
		}
		return nil, b.Storage.SaveData(ctx, p.str(0))

	case "setResult":
		if b.Results == nil {
			return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
		}
		var m map[string]interface{}
		if err := p.decode(0, &m); err != nil {
			return nil, err
		}
		return nil, b.Results.SetResult(ctx, types.ResultFromMap(m))

	case "trace":
		if b.Tracer == nil {
			return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
		}
		return nil, b.Tracer.Trace(ctx, p.str(0), p.str(1))
	}

	if b.Inner == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
	}
	return d.dispatchInner(ctx, method, p)
}

func (d *Dispatcher) dispatchInner(ctx context.Context, method string, p params) (interface{}, error) {
	in := d.backend.Inner
	switch method {
	case "requestPost":
		req, err := p.request()
		if err != nil {
			return nil, err
		}
		return in.RequestPost(ctx, req)

	case "getLevel":
		return in.GetLevel(ctx)

	case "setAuthentication":
		scope, err := p.object(2)
		if err != nil {
			return nil, err
		}
		return nil, in.SetAuthentication(ctx, p.str(0), p.str(1), scope)

	case "clearAuthentication":
		return nil, in.ClearAuthentication(ctx)

	case "setCookie":
		var value *string
		if !p.null(2) {
			v := p.str(2)
			value = &v
		}
		var cp types.CookieParams
		if err := p.decode(3, &cp); err != nil {
			return nil, err
		}
		return nil, in.SetCookie(ctx, p.str(0), p.str(1), value, cp)

	case "getCookies":
		return in.GetCookies(ctx)

	case "setOptions":
		opts, err := p.options(0)
		if err != nil {
			return nil, err
		}
		return nil, in.SetOptions(ctx, opts)

	case "sleep":
		var ms float64
		if err := p.decode(0, &ms); err != nil {
			return nil, err
		}
		return nil, in.Sleep(ctx, time.Duration(ms)*time.Millisecond)

	case "retrieveCode":
		opts, err := p.object(2)
		if err != nil {
			return nil, err
		}
		return in.RetrieveCode(ctx, p.str(0), p.str(1), opts)

	case "getCapabilities":
		return in.GetCapabilities(ctx)

	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
	}
}

func errorReply(err error) string {
	reply, mErr := sonic.MarshalString(map[string]interface{}{"error": true, "message": err.Error()})
	if mErr != nil {
		return err.Error()
	}
	return reply
}

// params are the raw positional arguments of a call
type params []json.RawMessage

func (p params) raw(i int) json.RawMessage {
	if i >= len(p) {
		return nil
	}
	return p[i]
}

func (p params) null(i int) bool {
	r := p.raw(i)
	return len(r) == 0 || string(r) == "null"
}

func (p params) decode(i int, out interface{}) error {
	if p.null(i) {
		return nil
	}
	if err := sonic.Unmarshal(p.raw(i), out); err != nil {
		return fmt.Errorf("param %d: %w", i, err)
	}
	return nil
}

func (p params) str(i int) string {
	var s string
	if err := p.decode(i, &s); err != nil {
		return ""
	}
	return s
}

// object accepts an object or a string holding one
func (p params) object(i int) (map[string]interface{}, error) {
	if p.null(i) {
		return nil, nil
	}
	var v interface{}
	if err := p.decode(i, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return nil, nil
		}
		if err := sonic.UnmarshalString(s, &v); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param %d: expected an object", i)
	}
	return m, nil
}

// options keeps the key order of perDomain sections
func (p params) options(i int) (options.Tree, error) {
	if p.null(i) {
		return options.Tree{}, nil
	}
	raw := []byte(p.raw(i))
	var s string
	if raw[0] == '"' {
		if err := sonic.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return options.Tree{}, nil
		}
		raw = []byte(s)
	}
	return options.Parse(raw)
}

func (p params) request() (requests.Request, error) {
	req := requests.Request{URL: p.str(0)}

	var asJSON bool
	if err := p.decode(2, &asJSON); err != nil {
		return req, err
	}

	if !p.null(1) {
		var data interface{}
		if err := p.decode(1, &data); err != nil {
			return req, err
		}
		switch v := data.(type) {
		case string:
			req.Body = requests.Body{Text: &v, JSON: asJSON}
		default:
			form, err := types.PairsFrom(v)
			if err != nil {
				return req, err
			}
			req.Body = requests.Body{Form: form, JSON: true}
		}
	}

	if !p.null(3) {
		var headers interface{}
		if err := p.decode(3, &headers); err != nil {
			return req, err
		}
		if s, ok := headers.(string); ok && s != "" {
			if err := sonic.UnmarshalString(s, &headers); err != nil {
				return req, err
			}
		}
		pairs, err := types.PairsFrom(headers)
		if err != nil {
			return req, err
		}
		req.Headers = pairs
	}

	opts, err := p.options(4)
	if err != nil {
		return req, err
	}
	req.Options = opts
	return req, nil
}
