package api

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

var statusCodeRe = regexp.MustCompile(`\S+\s+(\d+)`)

// Response wraps the result of RequestPost / RequestGet
type Response struct {
	raw *types.HTTPResponse
}

// NewResponse wraps a raw response
func NewResponse(raw *types.HTTPResponse) *Response {
	if raw == nil {
		raw = &types.HTTPResponse{}
	}
	return &Response{raw: raw}
}

// Raw returns the underlying payload
func (r *Response) Raw() *types.HTTPResponse { return r.raw }

// GetString returns the body as text. Binary bodies come back as base64.
func (r *Response) GetString() string {
	if r.raw.IsBinary() {
		return base64.StdEncoding.EncodeToString(r.raw.Binary)
	}
	return r.raw.Body
}

// GetBuffer returns the body as bytes. Text bodies are treated as base64.
func (r *Response) GetBuffer() ([]byte, error) {
	if r.raw.IsBinary() {
		return r.raw.Binary, nil
	}
	return base64.StdEncoding.DecodeString(r.raw.Body)
}

// GetJSON parses the body as JSON
func (r *Response) GetJSON() (interface{}, error) {
	var v interface{}
	if err := sonic.UnmarshalString(r.GetString(), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetLastURL returns the final URL after redirects
func (r *Response) GetLastURL() string { return r.raw.URL }

// GetLastStatusString returns the raw status line
func (r *Response) GetLastStatusString() string { return r.raw.Status }

// GetLastStatusCode extracts the numeric status, or 0
func (r *Response) GetLastStatusCode() int {
	m := statusCodeRe.FindStringSubmatch(r.raw.Status)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

// GetLastResponseHeader returns the first header with the given name
func (r *Response) GetLastResponseHeader(name string) (string, bool) {
	for _, h := range r.raw.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// GetLastResponseHeaders returns every header in response order
func (r *Response) GetLastResponseHeaders() types.Pairs {
	return r.raw.Headers
}
