package api

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

type fakeInner struct {
	mu       sync.Mutex
	requests []requests.Request
	response *types.HTTPResponse
	cookies  []types.Cookie
	opts     []options.Tree
}

func (f *fakeInner) RequestPost(_ context.Context, req requests.Request) (*types.HTTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.response == nil {
		return &types.HTTPResponse{Status: "HTTP/1.1 200 OK", Body: "ok"}, nil
	}
	return f.response, nil
}

func (f *fakeInner) GetLevel(context.Context) (int, error) { return 1, nil }

func (f *fakeInner) SetAuthentication(context.Context, string, string, map[string]interface{}) error {
	return nil
}

func (f *fakeInner) ClearAuthentication(context.Context) error { return nil }

func (f *fakeInner) SetCookie(_ context.Context, domain, name string, value *string, params types.CookieParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.cookies {
		if c.Name == name && c.Domain == domain {
			f.cookies = append(f.cookies[:i], f.cookies[i+1:]...)
			break
		}
	}
	if value != nil {
		f.cookies = append(f.cookies, types.Cookie{Name: name, Domain: domain, Value: *value, Path: params.Path})
	}
	return nil
}

func (f *fakeInner) GetCookies(context.Context) ([]types.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Cookie(nil), f.cookies...), nil
}

func (f *fakeInner) SetOptions(_ context.Context, opts options.Tree) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	return nil
}

func (f *fakeInner) Sleep(context.Context, time.Duration) error { return nil }

func (f *fakeInner) RetrieveCode(context.Context, string, string, map[string]interface{}) (string, error) {
	return "1234", nil
}

func (f *fakeInner) GetCapabilities(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

type memStorage struct {
	data  string
	saves int
}

func (m *memStorage) LoadData(context.Context) (string, error) { return m.data, nil }

func (m *memStorage) SaveData(_ context.Context, data string) error {
	m.data = data
	m.saves++
	return nil
}

type sink struct {
	results []types.Result
}

func (s *sink) SetResult(_ context.Context, res types.Result) error {
	s.results = append(s.results, res)
	return nil
}

type traceLog struct {
	lines []string
}

func (t *traceLog) Trace(_ context.Context, msg, _ string) error {
	t.lines = append(t.lines, msg)
	return nil
}

type fixture struct {
	api     *API
	inner   *fakeInner
	storage *memStorage
	sink    *sink
	trace   *traceLog
}

func newFixture(prefs types.Preferences) *fixture {
	f := &fixture{
		inner:   &fakeInner{},
		storage: &memStorage{},
		sink:    &sink{},
		trace:   &traceLog{},
	}
	f.api = New(Config{
		Preferences: prefs,
		Inner:       f.inner,
		Storage:     f.storage,
		Results:     f.sink,
		Tracer:      f.trace,
	})
	return f
}
