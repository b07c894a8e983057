package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func newHost(t *testing.T, cfg Config) *Host {
	t.Helper()
	h, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(Config{Options: options.Tree{"defaultCharset": 5.0}})
	assert.ErrorIs(t, err, options.ErrInvalidOption)
}

func TestRequestUsesPersistentOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method))
	}))
	defer srv.Close()

	h := newHost(t, Config{})
	ctx := context.Background()
	require.NoError(t, h.SetOptions(ctx, options.Tree{"httpMethod": "PUT"}))

	resp, err := h.RequestPost(ctx, requests.Request{URL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "PUT", resp.Body)
}

func TestSetOptionsValidation(t *testing.T) {
	h := newHost(t, Config{Options: options.Tree{"defaultCharset": "windows-1251"}})
	err := h.SetOptions(context.Background(), options.Tree{"forceCharset": true})
	assert.ErrorIs(t, err, options.ErrInvalidOption)
	assert.Equal(t, options.Tree{"defaultCharset": "windows-1251"}, h.Options())
}

func TestCookiesFlowToServer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			got = c.Value
		}
	}))
	defer srv.Close()

	h := newHost(t, Config{})
	ctx := context.Background()
	sid := "abc"
	require.NoError(t, h.SetCookie(ctx, "127.0.0.1", "sid", &sid, types.CookieParams{}))

	_, err := h.RequestPost(ctx, requests.Request{URL: srv.URL + "/", Options: options.Tree{"httpMethod": "GET"}})
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	list, err := h.GetCookies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sid", list[0].Name)
}

func TestAuthentication(t *testing.T) {
	var user, pass string
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
	}))
	defer srv.Close()

	h := newHost(t, Config{})
	ctx := context.Background()
	get := requests.Request{URL: srv.URL + "/", Options: options.Tree{"httpMethod": "GET"}}

	tests := []struct {
		name   string
		setup  func()
		authed bool
	}{
		{"global", func() { require.NoError(t, h.SetAuthentication(ctx, "u", "p", nil)) }, true},
		{"cleared", func() { require.NoError(t, h.ClearAuthentication(ctx)) }, false},
		{"scoped match", func() {
			require.NoError(t, h.SetAuthentication(ctx, "u", "p", map[string]interface{}{"host": "127.0.0.1"}))
		}, true},
		{"scoped other host", func() {
			require.NoError(t, h.SetAuthentication(ctx, "u", "p", map[string]interface{}{"host": "example.com"}))
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			_, err := h.RequestPost(ctx, get)
			require.NoError(t, err)
			assert.Equal(t, tt.authed, ok)
			if tt.authed {
				assert.Equal(t, "u", user)
				assert.Equal(t, "p", pass)
			}
		})
	}
}

func TestSleepHonoursContext(t *testing.T) {
	h := newHost(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := h.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, h.Sleep(context.Background(), time.Millisecond))
}

type fixedCode string

func (f fixedCode) RetrieveCode(context.Context, string, string, map[string]interface{}) (string, error) {
	return string(f), nil
}

func TestRetrieveCode(t *testing.T) {
	h := newHost(t, Config{})
	_, err := h.RetrieveCode(context.Background(), "code?", "", nil)
	assert.ErrorIs(t, err, ErrCodeRetrievalUnsupported)

	h = newHost(t, Config{Retriever: fixedCode("4321")})
	code, err := h.RetrieveCode(context.Background(), "code?", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "4321", code)
}

func TestLevelAndCapabilities(t *testing.T) {
	h := newHost(t, Config{Capabilities: map[string]interface{}{"captcha": true}})
	level, err := h.GetLevel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Level, level)

	caps, err := h.GetCapabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"captcha": true}, caps)
}
