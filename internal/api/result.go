package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

const dirtyDataWarning = "WARNING: setResult is called without saving data!"

// SetResult reports the outcome of the current pass. Only the first call
// per pass is accepted.
func (a *API) SetResult(ctx context.Context, data map[string]interface{}) error {
	a.mu.Lock()
	dirty := a.dataDirty
	a.mu.Unlock()
	if dirty {
		if err := a.tracer.Trace(ctx, dirtyDataWarning, "setResult"); err != nil {
			a.log.Warn("Trace failed", zap.Error(err))
		}
	}

	if !a.claimResult() {
		return nil
	}
	return a.publish(ctx, a.convert(data))
}

// IsSetResultCalled reports whether the current pass already has a result
func (a *API) IsSetResultCalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resultSet
}

func (a *API) claimResult() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resultSet {
		return false
	}
	a.resultSet = true
	return true
}

func (a *API) convert(data map[string]interface{}) (res types.Result) {
	if a.converter == nil {
		return types.ResultFromMap(data)
	}

	defer func() {
		if r := recover(); r != nil {
			res = ErrorToResult(panicError(r, ""))
		}
	}()

	converted, err := a.converter(data)
	if err != nil {
		return ErrorToResult(err)
	}
	return types.ResultFromMap(converted)
}

// setError reports err through SetResult so the converter and the
// dirty-data warning apply to failures as well
func (a *API) setError(ctx context.Context, err error) error {
	return a.SetResult(ctx, ErrorToResult(err).ToMap())
}

func (a *API) publish(ctx context.Context, res types.Result) error {
	kind := "success"
	switch {
	case res.Unhandled:
		kind = "unhandled"
	case res.Error:
		kind = "error"
	}
	a.recorder.RecordResult(kind)

	if err := a.results.SetResult(ctx, res); err != nil {
		return fmt.Errorf("deliver result: %w", err)
	}
	return nil
}

// panicError turns a recovered value into a failure
func panicError(r interface{}, stack string) error {
	if err, ok := r.(error); ok {
		switch err.(type) {
		case *UserError, *SystemError, *UnhandledError:
			return err
		}
		return &UnhandledError{Name: "panic", Message: err.Error(), Stack: stack}
	}
	return &UnhandledError{Name: "panic", Message: fmt.Sprint(r), Stack: stack}
}
