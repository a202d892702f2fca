package fileio

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding identifies a supported input text encoding. Catalog exports from
// legacy shop systems commonly arrive as Windows-1252 or ISO-8859-1.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding inspects raw file bytes. Valid UTF-8 (with or without BOM)
// wins; everything else is treated as Windows-1252, which decodes any byte
// sequence.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// DecodeText converts raw file bytes to UTF-8, stripping a BOM when present.
// Data that already is valid UTF-8 passes through untouched regardless of
// the requested encoding, so a mislabeled file is never decoded twice.
func DecodeText(data []byte, enc Encoding) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	var decoder *encoding.Decoder
	switch enc {
	case EncodingISO88591:
		decoder = charmap.ISO8859_1.NewDecoder()
	default:
		decoder = charmap.Windows1252.NewDecoder()
	}

	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
