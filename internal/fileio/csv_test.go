package fileio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/types"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"semicolon", "orderNumber;name;price\nSW-1;Boot;9,99\nSW-2;Sandal;19,99\n", ';'},
		{"comma", "orderNumber,name,price\nSW-1,Boot,9.99\nSW-2,Sandal,19.99\n", ','},
		{"tab", "orderNumber\tname\nSW-1\tBoot\n", '\t'},
		{"empty defaults to semicolon", "", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestDetectDelimiterPrefersConsistentCandidate(t *testing.T) {
	// Commas appear in cell content, but only semicolons appear in every
	// line with a stable count.
	data := "orderNumber;name\nSW-1;Boot, brown\nSW-2;Sandal\nSW-3;Boot, black\n"
	assert.Equal(t, ';', DetectDelimiter([]byte(data)))
}

func TestCSVRoundTrip(t *testing.T) {
	sections := map[types.Section][]types.Row{
		types.SectionArticle: {
			{"orderNumber": "SW-1", "name": "Boot", "active": true},
			{"orderNumber": "SW-2", "name": "Sandal", "active": false},
		},
	}
	columns := map[types.Section][]string{
		types.SectionArticle: {"orderNumber", "name", "active"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter().Write(&buf, sections, columns))

	groups, err := NewCSVReader().Read(buf.Bytes())
	require.NoError(t, err)

	rows := groups[string(types.SectionArticle)]
	require.Len(t, rows, 2)
	assert.Equal(t, "SW-1", rows[0].String("orderNumber"))
	assert.Equal(t, "Boot", rows[0].String("name"))
	assert.True(t, rows[0].Bool("active"))
	assert.False(t, rows[1].Bool("active"))
}

func TestCSVReaderSkipsBlankLines(t *testing.T) {
	data := "orderNumber;name\nSW-1;Boot\n;\n\nSW-2;Sandal\n"

	groups, err := NewCSVReader().Read([]byte(data))
	require.NoError(t, err)
	assert.Len(t, groups[string(types.SectionArticle)], 2)
}

func TestCSVReaderRejectsEmptyFile(t *testing.T) {
	_, err := NewCSVReader().Read([]byte(""))
	require.Error(t, err)
}

func TestCSVWriterFillsMissingCellsEmpty(t *testing.T) {
	sections := map[types.Section][]types.Row{
		types.SectionArticle: {{"orderNumber": "SW-1"}},
	}
	columns := map[types.Section][]string{
		types.SectionArticle: {"orderNumber", "name"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter().Write(&buf, sections, columns))
	assert.Equal(t, "orderNumber;name\nSW-1;\n", buf.String())
}
