package requests

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func TestDecompress(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, _ = w.Write([]byte("hello"))
	require.NoError(t, w.Close())

	out, err := Decompress("gzip", gz.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	out, err = Decompress("gzip", []byte("already plain"))
	require.NoError(t, err)
	assert.Equal(t, "already plain", string(out))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte("zstd body"), nil)
	require.NoError(t, enc.Close())

	out, err = Decompress("zstd", compressed)
	require.NoError(t, err)
	assert.Equal(t, "zstd body", string(out))

	out, err = Decompress("br", []byte("opaque"))
	require.NoError(t, err)
	assert.Equal(t, "opaque", string(out))
}

func TestEncodeBody(t *testing.T) {
	payload, form, err := encodeBody(Body{}, "utf-8")
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.False(t, form)

	payload, form, err = encodeBody(Body{Binary: []byte{1, 2}}, "koi8-r")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, payload)
	assert.False(t, form)

	payload, form, err = encodeBody(Body{Form: types.Pairs{{Name: "a", Value: "1"}}}, "koi8-r")
	require.NoError(t, err)
	assert.Equal(t, "a=1", string(payload))
	assert.True(t, form)

	text := `[["x", "1"], ["x", "2"]]`
	payload, form, err = encodeBody(Body{Text: &text, JSON: true}, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "x=1&x=2", string(payload))
	assert.True(t, form)

	bad := `{not json`
	_, _, err = encodeBody(Body{Text: &bad, JSON: true}, "utf-8")
	assert.Error(t, err)
}
