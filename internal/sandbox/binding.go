package sandbox

import (
	"context"
	"math"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// binding exposes an api.API to one VM
type binding struct {
	vm          *goja.Runtime
	api         *api.API
	ctx         context.Context
	log         *zap.Logger
	systemError goja.Value
	jsonParse   goja.Callable
}

// object builds the AnyBalance global
func (b *binding) object() *goja.Object {
	parse, _ := goja.AssertFunction(b.vm.Get("JSON").ToObject(b.vm).Get("parse"))
	b.jsonParse = parse

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"requestGet":           b.requestGet,
		"requestPost":          b.requestPost,
		"setAuthentication":    b.setAuthentication,
		"clearAuthentication":  b.clearAuthentication,
		"setCookie":            b.setCookie,
		"getCookies":           b.getCookies,
		"getCookie":            b.getCookie,
		"saveCookies":          b.saveCookies,
		"restoreCookies":       b.restoreCookies,
		"sleep":                b.sleep,
		"retrieveCode":         b.retrieveCode,
		"setOptions":           b.setOptions,
		"setDefaultCharset":    b.setDefaultCharset,
		"setResult":            b.setResult,
		"isSetResultCalled":    b.isSetResultCalled,
		"getData":              b.getData,
		"setData":              b.setData,
		"saveData":             b.saveData,
		"clearData":            b.clearData,
		"isDataDirty":          b.isDataDirty,
		"isAvailable":          b.isAvailable,
		"getAvailableCounters": b.getAvailableCounters,
		"getPreferences":       b.getPreferences,
		"trace":                b.trace,
		"getCapabilities":      b.getCapabilities,
		"getLevel":             b.getLevel,
		"setLoginSuccessful":   b.setLoginSuccessful,
		"encodeBase64":         b.encodeBase64,
		"decodeBase64":         b.decodeBase64,
		"isObject":             b.isObject,
	}

	obj := b.vm.NewObject()
	for name, fn := range methods {
		_ = obj.Set(name, fn)
	}
	_ = obj.Set("OPTIONS", options.Constants())
	return obj
}

func (b *binding) check(err error) {
	if err != nil {
		b.throw(err)
	}
}

func (b *binding) str(v goja.Value) string {
	if absent(v) {
		return ""
	}
	return v.String()
}

func (b *binding) requestGet(call goja.FunctionCall) goja.Value {
	headers, err := exportPairs(call.Argument(1))
	b.check(err)
	opts, err := exportTree(call.Argument(2))
	b.check(err)

	resp, err := b.api.RequestGet(b.ctx, b.str(call.Argument(0)), headers, opts)
	b.check(err)
	return b.response(resp)
}

func (b *binding) requestPost(call goja.FunctionCall) goja.Value {
	body, err := b.body(call.Argument(1))
	b.check(err)
	headers, err := exportPairs(call.Argument(2))
	b.check(err)
	opts, err := exportTree(call.Argument(3))
	b.check(err)

	resp, err := b.api.RequestPost(b.ctx, requests.Request{
		URL:     b.str(call.Argument(0)),
		Body:    body,
		Headers: headers,
		Options: opts,
	})
	b.check(err)
	return b.response(resp)
}

func (b *binding) body(v goja.Value) (requests.Body, error) {
	if absent(v) {
		return requests.Body{}, nil
	}
	if buf, ok := bytesOf(v); ok {
		return requests.Body{Binary: buf}, nil
	}
	if _, ok := v.(*goja.Object); ok {
		form, err := exportPairs(v)
		return requests.Body{Form: form}, err
	}
	return requests.TextBody(v.String()), nil
}

// response wraps an api.Response in the guest-side accessor object
func (b *binding) response(resp *api.Response) goja.Value {
	raw := resp.Raw()
	obj := b.vm.NewObject()
	_ = obj.Set("status", raw.Status)
	_ = obj.Set("url", raw.URL)
	_ = obj.Set("headers", b.toJS(raw.Headers))
	if raw.IsBinary() {
		_ = obj.Set("body", b.arrayBuffer(raw.Binary))
	} else {
		_ = obj.Set("body", raw.Body)
	}

	_ = obj.Set("getString", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(resp.GetString())
	})
	_ = obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(resp.GetString())
	})
	_ = obj.Set("getBuffer", func(goja.FunctionCall) goja.Value {
		buf, err := resp.GetBuffer()
		b.check(err)
		return b.arrayBuffer(buf)
	})
	_ = obj.Set("getJson", func(goja.FunctionCall) goja.Value {
		v, err := b.jsonParse(goja.Undefined(), b.vm.ToValue(resp.GetString()))
		b.check(err)
		return v
	})
	_ = obj.Set("getLastUrl", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(resp.GetLastURL())
	})
	_ = obj.Set("getLastStatusString", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(resp.GetLastStatusString())
	})
	_ = obj.Set("getLastStatusCode", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(resp.GetLastStatusCode())
	})
	_ = obj.Set("getLastResponseHeader", func(call goja.FunctionCall) goja.Value {
		v, ok := resp.GetLastResponseHeader(b.str(call.Argument(0)))
		if !ok {
			return b.vm.ToValue(false)
		}
		return b.vm.ToValue(v)
	})
	_ = obj.Set("getLastResponseHeaders", func(goja.FunctionCall) goja.Value {
		return b.toJS(resp.GetLastResponseHeaders())
	})
	return obj
}

func (b *binding) setAuthentication(call goja.FunctionCall) goja.Value {
	var scope map[string]interface{}
	b.check(exportInto(call.Argument(2), &scope))
	b.check(b.api.SetAuthentication(b.ctx, b.str(call.Argument(0)), b.str(call.Argument(1)), scope))
	return goja.Undefined()
}

func (b *binding) clearAuthentication(goja.FunctionCall) goja.Value {
	b.check(b.api.ClearAuthentication(b.ctx))
	return goja.Undefined()
}

func (b *binding) setCookie(call goja.FunctionCall) goja.Value {
	var value *string
	if v := call.Argument(2); !absent(v) {
		s := v.String()
		value = &s
	}
	var params types.CookieParams
	b.check(exportInto(call.Argument(3), &params))
	b.check(b.api.SetCookie(b.ctx, b.str(call.Argument(0)), b.str(call.Argument(1)), value, params))
	return goja.Undefined()
}

func (b *binding) getCookies(goja.FunctionCall) goja.Value {
	list, err := b.api.GetCookies(b.ctx)
	b.check(err)
	if list == nil {
		list = []types.Cookie{}
	}
	return b.toJS(list)
}

func (b *binding) getCookie(call goja.FunctionCall) goja.Value {
	var q api.CookieQuery
	if p := call.Argument(1); !absent(p) {
		obj, ok := p.(*goja.Object)
		if !ok {
			b.throw(api.NewUserError("getCookie: params argument should be null or object!", nil))
		}
		q.Domain = b.str(obj.Get("domain"))
		q.Path = b.str(obj.Get("path"))
		if all := obj.Get("allcookies"); !absent(all) {
			b.check(exportInto(all, &q.All))
		}
	}
	v, ok, err := b.api.GetCookie(b.ctx, b.str(call.Argument(0)), q)
	b.check(err)
	if !ok {
		return b.vm.ToValue(false)
	}
	return b.vm.ToValue(v)
}

func (b *binding) saveCookies(call goja.FunctionCall) goja.Value {
	b.check(b.api.SaveCookies(b.ctx, b.str(call.Argument(0))))
	return goja.Undefined()
}

func (b *binding) restoreCookies(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	if obj, ok := arg.(*goja.Object); ok && obj.ClassName() == "Array" {
		var list []types.Cookie
		b.check(exportInto(arg, &list))
		b.check(b.api.RestoreCookieList(b.ctx, list))
		return goja.Undefined()
	}
	b.check(b.api.RestoreCookies(b.ctx, b.str(arg)))
	return goja.Undefined()
}

func (b *binding) sleep(call goja.FunctionCall) goja.Value {
	ms := call.Argument(0).ToFloat()
	if math.IsNaN(ms) || ms < 0 {
		ms = 0
	}
	b.check(b.api.Sleep(b.ctx, time.Duration(ms*float64(time.Millisecond))))
	return goja.Undefined()
}

func (b *binding) retrieveCode(call goja.FunctionCall) goja.Value {
	var opts map[string]interface{}
	b.check(exportInto(call.Argument(2), &opts))
	code, err := b.api.RetrieveCode(b.ctx, b.str(call.Argument(0)), b.str(call.Argument(1)), opts)
	b.check(err)
	return b.vm.ToValue(code)
}

func (b *binding) setOptions(call goja.FunctionCall) goja.Value {
	opts, err := exportTree(call.Argument(0))
	b.check(err)
	b.check(b.api.SetOptions(b.ctx, opts))
	return goja.Undefined()
}

func (b *binding) setDefaultCharset(call goja.FunctionCall) goja.Value {
	b.check(b.api.SetDefaultCharset(b.ctx, b.str(call.Argument(0))))
	return goja.Undefined()
}

func (b *binding) setResult(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	data := map[string]interface{}{}
	switch {
	case absent(arg):
	case isObjectValue(arg):
		if m, ok := exportValue(arg).(map[string]interface{}); ok {
			data = m
		}
	default:
		b.check(exportInto(b.mustParse(arg.String()), &data))
	}
	b.check(b.api.SetResult(b.ctx, data))
	return goja.Undefined()
}

func (b *binding) mustParse(s string) goja.Value {
	v, err := b.jsonParse(goja.Undefined(), b.vm.ToValue(s))
	b.check(err)
	return v
}

func (b *binding) isSetResultCalled(goja.FunctionCall) goja.Value {
	return b.vm.ToValue(b.api.IsSetResultCalled())
}

func (b *binding) getData(call goja.FunctionCall) goja.Value {
	v, ok, err := b.api.LookupData(b.ctx, b.str(call.Argument(0)))
	b.check(err)
	if !ok {
		return call.Argument(1)
	}
	if v == nil {
		return goja.Null()
	}
	return b.toJS(v)
}

func (b *binding) setData(call goja.FunctionCall) goja.Value {
	b.check(b.api.SetData(b.ctx, b.str(call.Argument(0)), exportValue(call.Argument(1))))
	return goja.Undefined()
}

func (b *binding) saveData(call goja.FunctionCall) goja.Value {
	b.check(b.api.SaveData(b.ctx, call.Argument(0).ToBoolean()))
	return goja.Undefined()
}

func (b *binding) clearData(goja.FunctionCall) goja.Value {
	b.api.ClearData()
	return goja.Undefined()
}

func (b *binding) isDataDirty(goja.FunctionCall) goja.Value {
	return b.vm.ToValue(b.api.IsDataDirty())
}

// isAvailable accepts tokens or arrays of tokens. With arrays any group
// may match.
func (b *binding) isAvailable(call goja.FunctionCall) goja.Value {
	var tokens []string
	var groups [][]string
	for _, arg := range call.Arguments {
		if obj, ok := arg.(*goja.Object); ok && obj.ClassName() == "Array" {
			var group []string
			b.check(exportInto(arg, &group))
			groups = append(groups, group)
			continue
		}
		tokens = append(tokens, b.str(arg))
	}
	if groups == nil {
		return b.vm.ToValue(b.api.IsAvailable(tokens...))
	}
	for _, t := range tokens {
		groups = append(groups, []string{t})
	}
	return b.vm.ToValue(b.api.IsAvailableAny(groups...))
}

func (b *binding) getAvailableCounters(goja.FunctionCall) goja.Value {
	return b.toJS(b.api.GetAvailableCounters())
}

func (b *binding) getPreferences(goja.FunctionCall) goja.Value {
	return b.toJS(map[string]interface{}(b.api.Preferences()))
}

func (b *binding) trace(call goja.FunctionCall) goja.Value {
	caller := b.str(call.Argument(1))
	if caller == "" {
		caller = "trace"
	}
	b.check(b.api.Trace(b.ctx, b.str(call.Argument(0)), caller))
	return goja.Undefined()
}

func (b *binding) getCapabilities(goja.FunctionCall) goja.Value {
	caps, err := b.api.GetCapabilities(b.ctx)
	b.check(err)
	return b.toJS(caps)
}

func (b *binding) getLevel(goja.FunctionCall) goja.Value {
	level, err := b.api.GetLevel(b.ctx)
	b.check(err)
	return b.vm.ToValue(level)
}

func (b *binding) setLoginSuccessful(goja.FunctionCall) goja.Value {
	b.api.SetLoginSuccessful()
	return goja.Undefined()
}

func (b *binding) encodeBase64(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	buf, ok := bytesOf(arg)
	if !ok {
		buf = []byte(b.str(arg))
	}
	return b.vm.ToValue(b.api.EncodeBase64(buf))
}

func (b *binding) decodeBase64(call goja.FunctionCall) goja.Value {
	buf, err := b.api.DecodeBase64(b.str(call.Argument(0)))
	b.check(err)
	return b.arrayBuffer(buf)
}

func (b *binding) isObject(call goja.FunctionCall) goja.Value {
	return b.vm.ToValue(isObjectValue(call.Argument(0)))
}

func isObjectValue(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	return ok && obj.ClassName() == "Object"
}
