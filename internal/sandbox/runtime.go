package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
)

// ErrNoEntryPoint is returned when the program defines no main function
var ErrNoEntryPoint = errors.New("main is not defined")

// Runtime runs one provider program at a time
type Runtime struct {
	config Config
	log    *zap.Logger
	mu     sync.Mutex
}

// New creates a runtime
func New(config Config, log *zap.Logger) *Runtime {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{config: config, log: log}
}

// Run evaluates script, then drives its main function through a.Execute.
// Failures inside the program become results; the returned error reports
// only failures to deliver them.
func (r *Runtime) Run(ctx context.Context, a *api.API, script string, opts RunOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	vm := goja.New()
	if r.config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	b := &binding{vm: vm, api: a, ctx: ctx, log: r.log}
	main, loadErr := r.load(b, script, opts)

	start := time.Now()
	err := a.Execute(ctx, func(ctx context.Context, pass api.Pass) error {
		if loadErr != nil {
			return loadErr
		}
		b.ctx = ctx
		return b.callMain(main, opts.Task)
	})
	r.log.Debug("Program finished", zap.Duration("duration", time.Since(start)), zap.Error(err))
	return err
}

// load installs globals and evaluates the program
func (r *Runtime) load(b *binding, script string, opts RunOptions) (goja.Callable, error) {
	vm := b.vm
	if err := r.setupGlobals(b, opts); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = "provider.js"
	}
	if _, err := vm.RunScript(name, script); err != nil {
		return nil, b.failure(err)
	}

	entry := vm.Get("main")
	if entry == nil || goja.IsUndefined(entry) {
		if g := vm.Get("global"); g != nil && !goja.IsUndefined(g) {
			entry = g.ToObject(vm).Get("main")
		}
	}
	main, ok := goja.AssertFunction(entry)
	if !ok {
		return nil, &api.UnhandledError{Name: "ReferenceError", Message: ErrNoEntryPoint.Error()}
	}
	return main, nil
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals(b *binding, opts RunOptions) error {
	vm := b.vm
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	// Timers never fire
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, noop); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, b.consoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
	}

	if err := vm.Set("AnyBalance", b.object()); err != nil {
		return err
	}
	if opts.Outer != nil {
		if err := vm.Set("Outer", opts.Outer); err != nil {
			return err
		}
	}

	ctor, err := vm.RunString(prelude)
	if err != nil {
		return fmt.Errorf("install prelude: %w", err)
	}
	b.systemError = ctor
	return nil
}

func (b *binding) callMain(main goja.Callable, task string) error {
	args := []goja.Value{}
	if task != "" {
		args = append(args, b.vm.ToValue(task))
	}

	ret, err := main(goja.Undefined(), args...)
	if err != nil {
		return b.failure(err)
	}

	// async main
	if p, ok := ret.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateRejected:
			return b.thrown(p.Result(), "")
		case goja.PromiseStatePending:
			if b.ctx.Err() != nil {
				return b.ctx.Err()
			}
			return &api.UnhandledError{Name: "Error", Message: "main() returned a promise that never settled"}
		}
	}
	return nil
}

func (b *binding) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		if err := b.api.Trace(b.ctx, strings.Join(parts, " "), "console."+level); err != nil {
			b.log.Warn("Console trace failed", zap.Error(err))
		}
		return goja.Undefined()
	}
}
