package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContentType(t *testing.T) {
	assert.Equal(t, "windows-1251", FromContentType("text/html; charset=Windows-1251"))
	assert.Equal(t, "utf-8", FromContentType(`text/plain;charset="utf-8"`))
	assert.Equal(t, "", FromContentType("text/plain"))
	assert.Equal(t, "", FromContentType(""))
}

func TestFromBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"meta charset", `<html><head><meta charset="KOI8-R"></head></html>`, "koi8-r"},
		{"http-equiv", `<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-1251"></head></html>`, "windows-1251"},
		{"xml declaration", `<?xml version="1.0" encoding="ISO-8859-1"?><root/>`, "iso-8859-1"},
		{"nothing declared", `<html><body>plain</body></html>`, ""},
		{"not markup", `{"a": 1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromBody([]byte(tt.body)))
		})
	}
}

func TestSniffPrefersHeader(t *testing.T) {
	body := []byte(`<meta charset="koi8-r">`)
	assert.Equal(t, "utf-8", Sniff("text/html; charset=utf-8", body))
	assert.Equal(t, "koi8-r", Sniff("text/html", body))
}

func TestDecode(t *testing.T) {
	// "Привет" in windows-1251
	cp1251 := []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}

	out, err := Decode(cp1251, "windows-1251")
	require.NoError(t, err)
	assert.Equal(t, "Привет", out)

	out, err = Decode(cp1251, "windows1251")
	require.NoError(t, err)
	assert.Equal(t, "Привет", out)

	out, err = Decode([]byte("ok"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = Decode([]byte("ok"), "no-such-charset")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("utf-8"))
	assert.True(t, Known("cp1251"))
	assert.False(t, Known("klingon"))
}

func TestIsImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	assert.True(t, IsImage("image/png", nil))
	assert.False(t, IsImage("text/html", png))
	assert.True(t, IsImage("", png))
	assert.False(t, IsImage("", []byte("hello")))
	assert.False(t, IsImage("", nil))
}
