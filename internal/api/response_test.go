package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func TestResponseStatusCode(t *testing.T) {
	tests := []struct {
		status string
		code   int
	}{
		{"HTTP/1.1 200 OK", 200},
		{"HTTP/2.0 404 Not Found", 404},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := NewResponse(&types.HTTPResponse{Status: tt.status})
			assert.Equal(t, tt.code, r.GetLastStatusCode())
			assert.Equal(t, tt.status, r.GetLastStatusString())
		})
	}
}

func TestResponseHeaders(t *testing.T) {
	r := NewResponse(&types.HTTPResponse{Headers: types.Pairs{
		{Name: "Set-Cookie", Value: "a=1"},
		{Name: "set-cookie", Value: "b=2"},
	}})

	v, ok := r.GetLastResponseHeader("SET-COOKIE")
	assert.True(t, ok)
	assert.Equal(t, "a=1", v)

	_, ok = r.GetLastResponseHeader("Location")
	assert.False(t, ok)
	assert.Len(t, r.GetLastResponseHeaders(), 2)
}

func TestResponseBodies(t *testing.T) {
	bin := NewResponse(&types.HTTPResponse{Binary: []byte("hi")})
	assert.Equal(t, "aGk=", bin.GetString())
	buf, err := bin.GetBuffer()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), buf)

	text := NewResponse(&types.HTTPResponse{Body: "aGk=", URL: "https://x/y"})
	buf, err = text.GetBuffer()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), buf)
	assert.Equal(t, "https://x/y", text.GetLastURL())

	js := NewResponse(&types.HTTPResponse{Body: `{"a":[1,2]}`})
	v, err := js.GetJSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": []interface{}{1.0, 2.0}}, v)
}
