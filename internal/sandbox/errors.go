package sandbox

import (
	"context"
	"errors"
	"sort"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/asybalance/internal/api"
)

// failure converts an error returned by the VM into the api error taxonomy
func (b *binding) failure(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if b.ctx.Err() != nil {
			return b.ctx.Err()
		}
		return context.Canceled
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		return b.thrown(exc.Value(), exc.String())
	}
	return err
}

// thrown converts a thrown JavaScript value
func (b *binding) thrown(v goja.Value, trace string) error {
	if b.ctx.Err() != nil {
		return b.ctx.Err()
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return &api.UnhandledError{Message: "undefined", Primitive: true}
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return &api.UnhandledError{Message: v.String(), Primitive: true}
	}

	name := stringProp(obj, "name")
	message := stringProp(obj, "message")
	switch name {
	case api.UserErrorName:
		params := map[string]interface{}{}
		if ex, ok := obj.Get("ex").(*goja.Object); ok {
			if m, ok := exportValue(ex).(map[string]interface{}); ok {
				params = m
			}
		}
		if truthy(obj.Get("fatal")) {
			params["fatal"] = true
		}
		if truthy(obj.Get("allow_retry")) {
			params["allow_retry"] = true
		}
		return api.NewUserError(message, params)
	case api.SystemErrorName:
		return api.NewSystemError("%s", message)
	}

	stack := stringProp(obj, "stack")
	if stack == "" {
		stack = trace
	}
	fields := map[string]interface{}{}
	keys := obj.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		if k == "name" || k == "message" || k == "stack" {
			continue
		}
		fields[k] = exportValue(obj.Get(k))
	}
	if len(fields) == 0 {
		fields = nil
	}
	return &api.UnhandledError{Name: name, Message: message, Fields: fields, Stack: stack}
}

// throw raises err inside the VM as an AnyBalance error object
func (b *binding) throw(err error) {
	var userErr *api.UserError
	if errors.As(err, &userErr) {
		ctor := b.vm.Get("AnyBalance").ToObject(b.vm).Get("Error")
		args := []goja.Value{b.vm.ToValue(userErr.Message)}
		if userErr.Params != nil {
			args = append(args, b.vm.ToValue(userErr.Params))
		}
		if obj, nerr := b.vm.New(ctor, args...); nerr == nil {
			panic(obj)
		}
	}

	if obj, nerr := b.vm.New(b.systemError, b.vm.ToValue(err.Error())); nerr == nil {
		panic(obj)
	}
	panic(b.vm.NewGoError(err))
}

func stringProp(obj *goja.Object, name string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func truthy(v goja.Value) bool {
	return v != nil && v.ToBoolean()
}
