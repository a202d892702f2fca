package fileio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kosarica/catalog-service/internal/types"
)

// csvDelimiters are the candidates delimiter detection scores.
var csvDelimiters = []rune{';', ',', '\t'}

// CSVWriter writes the article section as a flat delimited file. CSV has no
// way to carry several record groups, so the other sections are omitted;
// use XML or XLSX for full batches.
type CSVWriter struct {
	Delimiter rune
}

// NewCSVWriter creates a CSV writer with the conventional semicolon
// delimiter of catalog exports.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{Delimiter: ';'}
}

func (cw *CSVWriter) Write(w io.Writer, sections map[types.Section][]types.Row, columns map[types.Section][]string) error {
	rows := sections[types.SectionArticle]
	cols := columnsFor(types.SectionArticle, rows, columns)

	out := csv.NewWriter(w)
	out.Comma = cw.Delimiter

	if err := out.Write(cols); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = cellValue(row, col)
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	out.Flush()
	return out.Error()
}

// CSVReader parses a flat delimited file into article rows. The delimiter
// is detected from the data unless set explicitly.
type CSVReader struct {
	Delimiter rune
	Encoding  Encoding
}

// NewCSVReader creates a CSV reader with delimiter and encoding detection.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (cr *CSVReader) Read(data []byte) (map[string][]types.Row, error) {
	decoded, err := DecodeText(data, cr.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv data: %w", err)
	}

	delimiter := cr.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(decoded)
	}

	in := csv.NewReader(bytes.NewReader(decoded))
	in.Comma = delimiter
	in.FieldsPerRecord = -1
	in.TrimLeadingSpace = true

	records, err := in.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv data: %w", err)
	}
	if len(records) < 1 {
		return nil, &types.ValidationError{Reason: "csv file has no header row"}
	}

	header := records[0]
	var rows []types.Row
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
		rows = append(rows, row)
	}

	return map[string][]types.Row{string(types.SectionArticle): rows}, nil
}

// DetectDelimiter scores the candidate delimiters over the first few lines
// and picks the one with the most consistent per-line count.
func DetectDelimiter(data []byte) rune {
	var sample []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) >= 5 {
			break
		}
	}
	if len(sample) == 0 {
		return ';'
	}

	best := ';'
	bestScore := 0.0
	for _, delim := range csvDelimiters {
		sum := 0
		counts := make([]int, len(sample))
		for i, line := range sample {
			counts[i] = strings.Count(line, string(delim))
			sum += counts[i]
		}
		avg := float64(sum) / float64(len(sample))
		if avg == 0 {
			continue
		}

		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avg
			variance += diff * diff
		}
		variance /= float64(len(sample))

		score := avg / (1.0 + variance)
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
