package requests

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// AcceptEncoding is sent unless the caller supplies its own value
const AcceptEncoding = "gzip, deflate, zstd"

// encodeBody produces the outbound payload. The second value reports
// whether the payload was form-encoded.
func encodeBody(b Body, reqCharset string) ([]byte, bool, error) {
	if b.Form != nil || (b.JSON && b.Text != nil) {
		pairs := b.Form
		if pairs == nil {
			var err error
			pairs, err = pairsFromJSON(*b.Text)
			if err != nil {
				return nil, false, err
			}
		}
		return []byte(FormEncode(pairs)), true, nil
	}

	if b.Binary != nil {
		return b.Binary, false, nil
	}
	if b.Text == nil || *b.Text == "" {
		return nil, false, nil
	}

	switch strings.ToLower(reqCharset) {
	case "base64":
		data, err := base64.StdEncoding.DecodeString(*b.Text)
		if err != nil {
			return nil, false, fmt.Errorf("decode base64 body: %w", err)
		}
		return data, false, nil
	case "utf-8", "utf8", "binary":
		return []byte(*b.Text), false, nil
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedRequestCharset, reqCharset)
	}
}

// FormEncode joins pairs as name=value&... using component escaping
func FormEncode(pairs types.Pairs) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, EscapeComponent(p.Name)+"="+EscapeComponent(p.Value))
	}
	return strings.Join(parts, "&")
}

var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent escapes s the way browsers escape URI components
func EscapeComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}

// pairsFromJSON reads a JSON object or list of tuples keeping field order
func pairsFromJSON(text string) (types.Pairs, error) {
	root, err := sonic.GetFromString(text)
	if err != nil {
		return nil, fmt.Errorf("parse json body: %w", err)
	}
	if err := root.LoadAll(); err != nil {
		return nil, fmt.Errorf("parse json body: %w", err)
	}

	if root.TypeSafe() != ast.V_OBJECT {
		var v interface{}
		if err := sonic.UnmarshalString(text, &v); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		return types.PairsFrom(v)
	}

	it, err := root.Properties()
	if err != nil {
		return nil, err
	}
	var out types.Pairs
	var p ast.Pair
	for it.Next(&p) {
		value, err := scalarString(&p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Pair{Name: p.Key, Value: value})
	}
	return out, nil
}

func scalarString(n *ast.Node) (string, error) {
	switch n.TypeSafe() {
	case ast.V_STRING:
		return n.String()
	case ast.V_NULL:
		return "null", nil
	default:
		raw, err := n.Raw()
		if err != nil {
			return "", err
		}
		return raw, nil
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Decompress decodes a body according to its Content-Encoding. Bodies that
// are already plain (the client transparently inflates gzip) and unknown
// encodings are returned untouched.
func Decompress(encoding string, body []byte) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		if !bytes.HasPrefix(body, gzipMagic) {
			return body, nil
		}
		var gz *gzip.Reader
		gz, err = gzip.NewReader(bytes.NewReader(body))
		if err == nil {
			defer gz.Close()
			r = gz
		}
	case "deflate":
		if zr, zerr := zlib.NewReader(bytes.NewReader(body)); zerr == nil {
			defer zr.Close()
			r = zr
		} else {
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			r = fr
		}
	case "zstd":
		if !bytes.HasPrefix(body, zstdMagic) {
			return body, nil
		}
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(bytes.NewReader(body))
		if err == nil {
			defer zr.Close()
			r = zr
		}
	default:
		return body, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}
	return out, nil
}
