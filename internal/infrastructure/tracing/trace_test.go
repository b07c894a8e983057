package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpan(t *testing.T) {
	tracer := New(nil)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "first")
	assert.True(t, strings.HasPrefix(string(span.TraceID), "req_"))
	assert.Equal(t, span.TraceID, GetTraceID(ctx))

	child, _ := tracer.StartSpan(ctx, "second")
	assert.Equal(t, span.TraceID, child.TraceID)
}

func TestGetTraceIDEmpty(t *testing.T) {
	assert.Equal(t, TraceID(""), GetTraceID(context.Background()))
}

func TestCloseFlushesSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New(zap.New(core))

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(context.Background(), "failed")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Close()

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "span completed", logs.All()[0].Message)
	assert.Equal(t, "span completed with error", logs.All()[1].Message)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New(zap.New(core))

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	const callerID = "req_01ARZ3NDEKTSV4RRFFQ69G5FAV"
	tests := []struct {
		name   string
		header string
		want   TraceID
	}{
		{"generated", "", ""},
		{"propagated", callerID, callerID},
		{"malformed replaced", "caller-supplied", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.header != "" {
				req.Header.Set(Header, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, string(seen), w.Header().Get(Header))
			if tt.want != "" {
				assert.Equal(t, tt.want, seen)
			} else {
				assert.True(t, strings.HasPrefix(string(seen), "req_"))
				assert.NotEqual(t, TraceID(tt.header), seen)
			}
		})
	}

	tracer.Close()
	require.Equal(t, 3, logs.Len())
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, callerID, fields["trace_id"])
	assert.Equal(t, "/health", fields["operation"])
	assert.Equal(t, "200", fields["http.status"])
}
