package charset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	htmlcharset "golang.org/x/net/html/charset"
)

const (
	// Base64 returns the body base64-encoded
	Base64 = "base64"
	// Binary returns the raw body
	Binary = "binary"
	// Auto detects the charset from the body bytes
	Auto = "auto"
	// UTF8 is the canonical utf-8 label
	UTF8 = "utf-8"

	// PeekSize bounds how much of the body is searched for declarations
	PeekSize = 2048
)

// ErrUnknownEncoding is returned for charsets that cannot be decoded
var ErrUnknownEncoding = errors.New("unknown encoding")

var xmlDeclaration = regexp.MustCompile(`(?i)<\?xml[^>]+encoding\s*=\s*["']?([\w.:-]+)`)

// FromContentType extracts the charset parameter of a Content-Type value
func FromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// FromBody looks for a meta tag or XML declaration near the start of body
func FromBody(body []byte) string {
	head := body
	if len(head) > PeekSize {
		head = head[:PeekSize]
	}

	if m := xmlDeclaration.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}

	if !bytes.Contains(bytes.ToLower(head), []byte("<meta")) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(head))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if cs, ok := s.Attr("charset"); ok && strings.TrimSpace(cs) != "" {
			found = strings.TrimSpace(cs)
			return false
		}
		if equiv, _ := s.Attr("http-equiv"); strings.EqualFold(equiv, "content-type") {
			content, _ := s.Attr("content")
			if cs := FromContentType(content); cs != "" {
				found = cs
				return false
			}
		}
		return true
	})
	return strings.ToLower(found)
}

// Sniff returns the charset declared by a response, or ""
func Sniff(contentType string, body []byte) string {
	if cs := FromContentType(contentType); cs != "" {
		return cs
	}
	return FromBody(body)
}

// Detect guesses the charset from the body bytes
func Detect(body []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(body)
	if err != nil || result == nil {
		return UTF8
	}
	return strings.ToLower(result.Charset)
}

// IsImage reports whether a response carries an image. Without a
// Content-Type the body is inspected.
func IsImage(contentType string, body []byte) bool {
	if contentType != "" {
		return strings.Contains(strings.ToLower(contentType), "image/")
	}
	if len(body) == 0 {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(body).String(), "image/")
}

// Known reports whether a label can be decoded
func Known(label string) bool {
	_, err := normalize(label)
	return err == nil
}

// Decode converts body from the named charset to a UTF-8 string
func Decode(body []byte, label string) (string, error) {
	name, err := normalize(label)
	if err != nil {
		return "", err
	}
	if name == UTF8 {
		return string(body), nil
	}

	r, err := htmlcharset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, label)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}

// normalize maps a label to one the decoder understands. Labels such as
// "windows1251" are retried with the dash restored.
func normalize(label string) (string, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	candidates := []string{label}
	if strings.HasPrefix(label, "windows") && !strings.HasPrefix(label, "windows-") {
		candidates = append(candidates, "windows-"+strings.TrimPrefix(label, "windows"))
	}
	if strings.HasPrefix(label, "windows-") {
		candidates = append(candidates, "windows"+strings.TrimPrefix(label, "windows-"))
	}

	for _, c := range candidates {
		if e, name := htmlcharset.Lookup(c); e != nil {
			if name == "utf-8" {
				return UTF8, nil
			}
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, label)
}
