package api

import (
	"context"
	"time"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Inner performs network, cookie and option capabilities
type Inner interface {
	RequestPost(ctx context.Context, req requests.Request) (*types.HTTPResponse, error)
	GetLevel(ctx context.Context) (int, error)
	SetAuthentication(ctx context.Context, user, pass string, scope map[string]interface{}) error
	ClearAuthentication(ctx context.Context) error
	SetCookie(ctx context.Context, domain, name string, value *string, params types.CookieParams) error
	GetCookies(ctx context.Context) ([]types.Cookie, error)
	SetOptions(ctx context.Context, opts options.Tree) error
	Sleep(ctx context.Context, d time.Duration) error
	RetrieveCode(ctx context.Context, prompt, image string, opts map[string]interface{}) (string, error)
	GetCapabilities(ctx context.Context) (map[string]interface{}, error)
}

// Storage persists the account data blob
type Storage interface {
	LoadData(ctx context.Context) (string, error)
	SaveData(ctx context.Context, data string) error
}

// ResultSink receives accepted results
type ResultSink interface {
	SetResult(ctx context.Context, res types.Result) error
}

// Tracer records diagnostic messages
type Tracer interface {
	Trace(ctx context.Context, msg, caller string) error
}

// Converter post-processes a result object before it is accepted
type Converter func(data map[string]interface{}) (map[string]interface{}, error)

// Recorder receives façade events for metrics
type Recorder interface {
	RecordCall(method string)
	RecordPass(outcome string)
	RecordResult(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCall(string)   {}
func (nopRecorder) RecordPass(string)   {}
func (nopRecorder) RecordResult(string) {}
