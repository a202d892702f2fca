package fileio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("plain ascii")))
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("gr\xc3\xb6\xc3\x9fe")))
	assert.Equal(t, EncodingUTF8, DetectEncoding(append([]byte{0xEF, 0xBB, 0xBF}, "bom"...)))
	assert.Equal(t, EncodingWindows1252, DetectEncoding([]byte("gr\xf6\xdfe")))
}

func TestDecodeTextStripsBOM(t *testing.T) {
	out, err := DecodeText(append([]byte{0xEF, 0xBB, 0xBF}, "hello"...), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestDecodeTextWindows1252(t *testing.T) {
	// "größe" in Windows-1252 bytes.
	out, err := DecodeText([]byte("gr\xf6\xdfe"), EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, "größe", string(out))
}

func TestDecodeTextISO88591(t *testing.T) {
	out, err := DecodeText([]byte("caf\xe9"), EncodingISO88591)
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
}

func TestDecodeTextPassesValidUTF8Through(t *testing.T) {
	// Mislabeled but already valid UTF-8 must not be decoded twice.
	in := []byte("größe")
	out, err := DecodeText(in, EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
