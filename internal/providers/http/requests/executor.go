package requests

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/charset"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/client"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

var (
	// ErrMalformedURL is returned when no host can be extracted from a URL
	ErrMalformedURL = errors.New("malformed url for request")
	// ErrUnsupportedRequestCharset is returned for text bodies in charsets
	// other than utf-8, base64 or binary
	ErrUnsupportedRequestCharset = errors.New("only UTF-8, base64 or binary request charset is supported")
)

// DefaultMethod is used when no httpMethod option applies
const DefaultMethod = "POST"

// Body is an outbound request body. At most one of Text, Binary and Form is
// set. JSON marks a Text body holding a JSON object to be form-encoded.
type Body struct {
	Text   *string
	Binary []byte
	Form   types.Pairs
	JSON   bool
}

// Empty reports whether there is nothing to send
func (b Body) Empty() bool {
	return b.Text == nil && b.Binary == nil && b.Form == nil
}

// TextBody is a convenience constructor for textual bodies
func TextBody(s string) Body {
	return Body{Text: &s}
}

// Request describes one outbound call
type Request struct {
	URL     string
	Body    Body
	Headers types.Pairs
	Options options.Tree
}

// Observer receives one notification per completed exchange
type Observer interface {
	ObserveRequest(method string, status int, duration time.Duration)
}

// Executor performs requests through a shared client
type Executor struct {
	Client   *client.Client
	Observer Observer
	Logger   *zap.Logger
}

// NewExecutor creates an executor. A nil logger disables logging.
func NewExecutor(c *client.Client, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{Client: c, Logger: log}
}

// Do performs req with base as the persistent option tree. base is never
// modified.
func (e *Executor) Do(ctx context.Context, base options.Tree, req Request) (*types.HTTPResponse, error) {
	u, err := url.Parse(req.URL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformedURL, req.URL)
	}
	host := u.Hostname()

	local := base
	if overlay := options.Overlay(req.Options); len(overlay) > 0 {
		local = options.MergeNew(base, overlay)
	}
	if local == nil {
		local = options.Tree{}
	}

	method := resolveMethod(req.Options, local, host)
	defCharset := local.String(options.KeyDefaultCharset, host)
	if defCharset == "" {
		defCharset = options.DefaultCharset
	}
	reqCharset := local.String(options.KeyRequestCharset, host)
	if reqCharset == "" {
		reqCharset = defCharset
	}

	headers := req.Headers
	payload, formEncoded, err := encodeBody(req.Body, reqCharset)
	if err != nil {
		return nil, err
	}
	if formEncoded && !headers.Has("Content-Type") {
		headers = append(headers, types.Pair{Name: "Content-Type", Value: "application/x-www-form-urlencoded"})
	}

	route := client.Route{Proxy: local.String(options.KeyProxy, host)}
	route.TLS = tlsPolicy(local, host)

	r, err := e.Client.Request(client.WithRoute(ctx, route))
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		r.SetHeader(h.Name, h.Value)
	}
	if !headers.Has("Accept-Encoding") {
		r.SetHeader("Accept-Encoding", AcceptEncoding)
	}
	if payload != nil {
		r.SetBody(payload)
	}

	start := time.Now()
	resp, err := r.Execute(method, req.URL)
	if err != nil {
		e.Logger.Debug("request failed",
			zap.String("method", method),
			zap.String("host", host),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	if e.Observer != nil {
		e.Observer.ObserveRequest(method, resp.StatusCode(), time.Since(start))
	}

	raw := resp.RawResponse
	body, err := Decompress(raw.Header.Get("Content-Encoding"), resp.Body())
	if err != nil {
		return nil, err
	}

	contentType := raw.Header.Get("Content-Type")
	if charset.IsImage(contentType, body) {
		defCharset = charset.Base64
	}

	cs := local.String(options.KeyForceCharset, host)
	if cs == "" {
		cs = charset.Sniff(contentType, body)
	}
	if cs == "" {
		cs = defCharset
	}
	if strings.EqualFold(cs, charset.Auto) {
		cs = charset.Detect(body)
		if !charset.Known(cs) {
			cs = charset.UTF8
		}
	}

	out := &types.HTTPResponse{
		Status:  statusLine(raw.ProtoMajor, raw.ProtoMinor, raw.StatusCode, raw.Status),
		Headers: headerPairs(raw.Header),
		URL:     raw.Request.URL.String(),
	}

	switch strings.ToLower(cs) {
	case charset.Base64:
		out.Body = base64.StdEncoding.EncodeToString(body)
	case charset.Binary:
		out.Binary = append([]byte{}, body...)
	default:
		text, err := charset.Decode(body, cs)
		if err != nil {
			return nil, err
		}
		out.Body = text
	}

	e.Logger.Debug("request completed",
		zap.String("method", method),
		zap.String("host", host),
		zap.Int("status", resp.StatusCode()),
		zap.String("charset", cs),
		zap.Int("bytes", len(body)))

	return out, nil
}

func resolveMethod(request, local options.Tree, host string) string {
	if m, ok := request[string(options.KeyHTTPMethod)].(string); ok && m != "" {
		return strings.ToUpper(m)
	}
	if m := local.String(options.KeyHTTPMethod, host); m != "" {
		return strings.ToUpper(m)
	}
	return DefaultMethod
}

func statusLine(major, minor, code int, status string) string {
	reason := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	return fmt.Sprintf("HTTP/%d.%d %d %s", major, minor, code, reason)
}

// headerPairs flattens response headers. net/http parses headers into a
// map, so order across names is lost; names are sorted to keep the list
// stable. Repeated values of one name keep their wire order.
func headerPairs(h map[string][]string) types.Pairs {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(types.Pairs, 0, len(h))
	for _, k := range names {
		for _, v := range h[k] {
			out = append(out, types.Pair{Name: k, Value: v})
		}
	}
	return out
}
