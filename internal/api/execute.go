package api

import (
	"context"
	"errors"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Messages traced by Execute
const (
	MsgNoResult      = "main() exited without calling setResult()"
	MsgFatalBreak    = "Caught fatal error, breaking iterations"
	MsgLoginNotDone  = "Login was not successful, breaking iterations"
	MsgTimedOut      = "Provider execution timed out"
	executeTraceName = "execute"
)

// Pass describes one run of the provider entry point
type Pass struct {
	Index    int
	Counters []string
}

// MainFunc is the provider entry point
type MainFunc func(ctx context.Context, pass Pass) error

// Execute runs main once per counter set, or once when no sets are
// configured. A failed pass ends iteration when it is fatal or when login
// was never reported. It returns only delivery failures; provider failures
// become error results. A second call does nothing.
func (a *API) Execute(ctx context.Context, main MainFunc) error {
	a.mu.Lock()
	if a.executed {
		a.mu.Unlock()
		return nil
	}
	a.executed = true
	a.mu.Unlock()

	sets, multi := a.prefs.CountersSet()
	if !multi {
		sets = [][]string{nil}
	}

	var sinkErr error
	keep := func(err error) {
		if err != nil && sinkErr == nil {
			sinkErr = err
		}
	}

	for i, set := range sets {
		if ctx.Err() != nil {
			break
		}
		a.beginPass(i, set, multi)

		err := a.runPass(ctx, main, Pass{Index: i, Counters: set})
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				err = &UnhandledError{Name: "TimeoutError", Message: MsgTimedOut, Primitive: true}
			}
			a.log.Debug("Pass failed", zap.Int("pass", i), zap.Error(err))
			keep(a.setError(ctx, err))
			a.recorder.RecordPass("error")
		} else {
			a.recorder.RecordPass("ok")
		}

		if !a.IsSetResultCalled() {
			keep(a.setMissing(ctx))
		}

		if err == nil {
			continue
		}
		if IsFatal(err) {
			a.trace(ctx, MsgFatalBreak)
			break
		}
		if multi && !a.loggedIn() {
			a.trace(ctx, MsgLoginNotDone)
			break
		}
	}
	return sinkErr
}

func (a *API) beginPass(index int, set []string, multi bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = a.prefs.Clone()
	if multi {
		a.view[types.PrefCounters] = append([]string(nil), set...)
		a.view[types.PrefCountersSetIndex] = index
	}
	a.available = nil
	a.resultSet = false
}

func (a *API) runPass(ctx context.Context, main MainFunc, pass Pass) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r, string(debug.Stack()))
		}
	}()
	return main(ctx, pass)
}

func (a *API) setMissing(ctx context.Context) error {
	if a.IsSetResultCalled() {
		return nil
	}
	return a.SetResult(ctx, types.NewError(MsgNoResult).ToMap())
}

func (a *API) loggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loginSuccessful
}

func (a *API) trace(ctx context.Context, msg string) {
	if err := a.tracer.Trace(ctx, msg, executeTraceName); err != nil {
		a.log.Warn("Trace failed", zap.Error(err))
	}
}
