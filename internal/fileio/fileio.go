// Package fileio reads and writes catalog batches as structured files.
// The on-disk shape is the flat sectioned format the pipeline works with:
// every sub-entity row carries a parentIndexElement pointing at its article
// row, so a written file can be imported back without loss.
package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kosarica/catalog-service/internal/types"
)

// Format identifies a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// Writer serializes grouped section rows. Columns fixes the field order per
// section; fields missing from a row are written empty.
type Writer interface {
	Write(w io.Writer, sections map[types.Section][]types.Row, columns map[types.Section][]string) error
}

// Reader parses a file back into grouped section rows, with string cell
// values and parentIndexElement correlation intact.
type Reader interface {
	Read(data []byte) (map[string][]types.Row, error)
}

// FormatForFile derives the format from a file name.
func FormatForFile(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", &types.InvalidArgumentError{Reason: fmt.Sprintf("unsupported file format for %q", name)}
	}
}

// NewWriter returns the writer for a format.
func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(), nil
	case FormatXML:
		return NewXMLWriter(), nil
	case FormatXLSX:
		return NewXLSXWriter(), nil
	default:
		return nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("unsupported file format %q", format)}
	}
}

// NewReader returns the reader for a format.
func NewReader(format Format) (Reader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(), nil
	case FormatXML:
		return NewXMLReader(), nil
	case FormatXLSX:
		return NewXLSXReader(), nil
	default:
		return nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("unsupported file format %q", format)}
	}
}

// sectionElements maps each section to its plural container element and
// worksheet name.
var sectionElements = map[types.Section]string{
	types.SectionArticle:       "articles",
	types.SectionPrice:         "prices",
	types.SectionImage:         "images",
	types.SectionPropertyValue: "propertyValues",
	types.SectionSimilar:       "similars",
	types.SectionAccessory:     "accessories",
	types.SectionConfigurator:  "configurators",
	types.SectionCategory:      "categories",
	types.SectionTranslation:   "translations",
}

func sectionByElement(element string) (types.Section, bool) {
	for section, plural := range sectionElements {
		if plural == element {
			return section, true
		}
	}
	return "", false
}

// cellValue renders a row field for a text cell.
func cellValue(row types.Row, key string) string {
	if !row.Has(key) {
		return ""
	}
	switch v := row[key].(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return row.String(key)
	}
}

// columnsFor returns the configured column order of a section, falling back
// to the sorted union of the row keys. The correlation column is always
// included for sub-entity sections so written files can be imported back.
func columnsFor(section types.Section, rows []types.Row, columns map[types.Section][]string) []string {
	cols := columns[section]
	if len(cols) == 0 {
		seen := make(map[string]bool)
		for _, row := range rows {
			for key := range row {
				seen[key] = true
			}
		}
		delete(seen, types.ParentIndexKey)
		cols = make([]string, 0, len(seen))
		for key := range seen {
			cols = append(cols, key)
		}
		sort.Strings(cols)
	}

	if section == types.SectionArticle {
		return cols
	}
	for _, col := range cols {
		if col == types.ParentIndexKey {
			return cols
		}
	}
	return append([]string{types.ParentIndexKey}, cols...)
}
