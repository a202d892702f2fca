package fileio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kosarica/catalog-service/internal/types"
)

// XLSXWriter writes one worksheet per section, each with a header row.
type XLSXWriter struct{}

// NewXLSXWriter creates an XLSX writer.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (xw *XLSXWriter) Write(w io.Writer, sections map[types.Section][]types.Row, columns map[types.Section][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, section := range types.Sections() {
		rows := sections[section]
		if len(rows) == 0 {
			continue
		}

		sheet := sectionElements[section]
		if first {
			// Rename the default sheet instead of leaving an empty Sheet1.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		cols := columnsFor(section, rows, columns)
		header := make([]any, len(cols))
		for i, col := range cols {
			header[i] = col
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of sheet %s: %w", sheet, err)
		}

		for i, row := range rows {
			cells := make([]any, len(cols))
			for j, col := range cols {
				cells[j] = cellValue(row, col)
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return fmt.Errorf("failed to address row %d of sheet %s: %w", i+2, sheet, err)
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("failed to write row %d of sheet %s: %w", i+2, sheet, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx file: %w", err)
	}
	return nil
}

// XLSXReader parses a workbook with one worksheet per section. Sheets whose
// name matches no known section are ignored.
type XLSXReader struct{}

// NewXLSXReader creates an XLSX reader.
func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (xr *XLSXReader) Read(data []byte) (map[string][]types.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	groups := make(map[string][]types.Row)
	for _, sheet := range f.GetSheetList() {
		section, ok := sectionByElement(sheet)
		if !ok {
			continue
		}

		records, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(records) < 1 {
			continue
		}

		header := records[0]
		for _, record := range records[1:] {
			if isBlankRecord(record) {
				continue
			}
			row := make(types.Row, len(header))
			for i, col := range header {
				col = strings.TrimSpace(col)
				if col == "" || i >= len(record) {
					continue
				}
				row[col] = record[i]
			}
			groups[string(section)] = append(groups[string(section)], row)
		}
	}
	return groups, nil
}
