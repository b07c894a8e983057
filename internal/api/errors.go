package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Error names as seen by provider programs
const (
	SystemErrorName = "AnyBalanceApiError"
	UserErrorName   = "AnyBalanceApiUserError"
)

// ErrStringGateNotSet is returned by capabilities that have neither an
// in-process collaborator nor a remote channel
var ErrStringGateNotSet = errors.New("string gate not set")

// UserError is raised deliberately by a provider program. Params carries
// hints such as allow_retry and fatal.
type UserError struct {
	Message string
	Params  map[string]interface{}
}

// NewUserError creates a user error
func NewUserError(message string, params map[string]interface{}) *UserError {
	return &UserError{Message: message, Params: params}
}

func (e *UserError) Error() string { return e.Message }

// Fatal reports whether the provider asked to stop further passes
func (e *UserError) Fatal() bool {
	fatal, _ := e.Params["fatal"].(bool)
	return fatal
}

// SystemError is raised by the capability layer itself
type SystemError struct {
	Message string
	Err     error
}

// NewSystemError creates a system error
func NewSystemError(format string, args ...interface{}) *SystemError {
	return &SystemError{Message: fmt.Sprintf(format, args...)}
}

func (e *SystemError) Error() string { return e.Message }

func (e *SystemError) Unwrap() error { return e.Err }

// UnhandledError is any other failure escaping a provider program.
// Primitive is set when the program threw a non-object value; its text is
// reported as is.
type UnhandledError struct {
	Name      string
	Message   string
	Fields    map[string]interface{}
	Stack     string
	Primitive bool
}

func (e *UnhandledError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// Fatal reports whether the failure carried a truthy fatal field
func (e *UnhandledError) Fatal() bool {
	fatal, _ := e.Fields["fatal"].(bool)
	return fatal
}

// Dump renders the diagnostic text used in error results
func (e *UnhandledError) Dump() string {
	if e.Primitive {
		return e.Message
	}
	var b strings.Builder
	b.WriteString("Unhandled exception in user script:")
	b.WriteString("\nname: " + e.Name)
	b.WriteString("\nmessage: " + e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "name" || k == "message" || k == "stack" {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %v", k, e.Fields[k])
	}
	if e.Stack != "" {
		b.WriteString("\nCall stack:\n" + e.Stack)
	}
	return b.String()
}

// fatalError is implemented by failures that can stop pass iteration
type fatalError interface {
	Fatal() bool
}

// IsFatal reports whether err asks to stop iterating counter sets
func IsFatal(err error) bool {
	var f fatalError
	if errors.As(err, &f) {
		return f.Fatal()
	}
	return false
}

// ErrorToResult converts a failure into an error result
func ErrorToResult(err error) types.Result {
	var (
		userErr      *UserError
		sysErr       *SystemError
		unhandledErr *UnhandledError
	)

	switch {
	case err == nil:
		return types.NewError("unknown error")
	case errors.As(err, &userErr):
		res := types.NewError(userErr.Message)
		res.Cause = &types.Failure{Name: UserErrorName, Message: userErr.Message, Params: userErr.Params}
		return res
	case errors.As(err, &sysErr):
		res := types.NewError(sysErr.Message)
		res.Investigate = true
		return res
	case errors.As(err, &unhandledErr):
		return unhandledResult(unhandledErr.Dump())
	default:
		dump := (&UnhandledError{Name: "Error", Message: err.Error()}).Dump()
		return unhandledResult(dump)
	}
}

func unhandledResult(message string) types.Result {
	res := types.NewError(message)
	res.Cause = &types.Failure{Name: UserErrorName, Message: message}
	res.Investigate = true
	res.Unhandled = true
	return res
}
