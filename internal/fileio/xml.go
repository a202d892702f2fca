package fileio

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/kosarica/catalog-service/internal/types"
)

const xmlRootElement = "catalog"

// XMLWriter streams grouped section rows as nested XML: one plural
// container per section, one element per row, one child element per field.
type XMLWriter struct{}

// NewXMLWriter creates an XML writer.
func NewXMLWriter() *XMLWriter {
	return &XMLWriter{}
}

func (xw *XMLWriter) Write(w io.Writer, sections map[types.Section][]types.Row, columns map[types.Section][]string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: xmlRootElement}}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("failed to open xml root: %w", err)
	}

	for _, section := range types.Sections() {
		rows := sections[section]
		if len(rows) == 0 {
			continue
		}
		if err := xw.writeSection(enc, section, rows, columns); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("failed to close xml root: %w", err)
	}
	return enc.Flush()
}

func (xw *XMLWriter) writeSection(enc *xml.Encoder, section types.Section, rows []types.Row, columns map[types.Section][]string) error {
	container := xml.StartElement{Name: xml.Name{Local: sectionElements[section]}}
	if err := enc.EncodeToken(container); err != nil {
		return fmt.Errorf("failed to open %s: %w", sectionElements[section], err)
	}

	cols := columnsFor(section, rows, columns)
	item := xml.StartElement{Name: xml.Name{Local: string(section)}}
	for _, row := range rows {
		if err := enc.EncodeToken(item); err != nil {
			return fmt.Errorf("failed to open %s row: %w", section, err)
		}
		for _, col := range cols {
			field := xml.StartElement{Name: xml.Name{Local: col}}
			if err := enc.EncodeToken(field); err != nil {
				return fmt.Errorf("failed to open field %s: %w", col, err)
			}
			if err := enc.EncodeToken(xml.CharData(cellValue(row, col))); err != nil {
				return fmt.Errorf("failed to write field %s: %w", col, err)
			}
			if err := enc.EncodeToken(field.End()); err != nil {
				return fmt.Errorf("failed to close field %s: %w", col, err)
			}
		}
		if err := enc.EncodeToken(item.End()); err != nil {
			return fmt.Errorf("failed to close %s row: %w", section, err)
		}
	}

	if err := enc.EncodeToken(container.End()); err != nil {
		return fmt.Errorf("failed to close %s: %w", sectionElements[section], err)
	}
	return nil
}

// XMLReader parses the sectioned XML format back into grouped rows.
type XMLReader struct {
	Encoding Encoding
}

// NewXMLReader creates an XML reader with encoding detection.
func NewXMLReader() *XMLReader {
	return &XMLReader{}
}

func (xr *XMLReader) Read(data []byte) (map[string][]types.Row, error) {
	decoded, err := DecodeText(data, xr.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode xml data: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(decoded))
	groups := make(map[string][]types.Row)

	var section types.Section
	depth := 0
	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml data: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				found, ok := sectionByElement(t.Name.Local)
				if !ok {
					return nil, &types.ValidationError{Reason: fmt.Sprintf("unknown record group %q", t.Name.Local)}
				}
				section = found
			case 3:
				row, err := xr.readRow(dec)
				if err != nil {
					return nil, err
				}
				groups[string(section)] = append(groups[string(section)], row)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return groups, nil
}

// readRow consumes the children of one row element. Fields are flat; any
// nesting below the field level is rejected.
func (xr *XMLReader) readRow(dec *xml.Decoder) (types.Row, error) {
	row := types.Row{}
	for {
		token, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml row: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			var value string
			if err := dec.DecodeElement(&value, &t); err != nil {
				return nil, fmt.Errorf("failed to parse xml field %s: %w", t.Name.Local, err)
			}
			row[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			return row, nil
		}
	}
}
