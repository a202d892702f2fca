package importer

import (
	"fmt"
	"strings"

	"github.com/kosarica/catalog-service/internal/types"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldInt
	fieldFloat
	fieldBool
)

// fieldDef maps one import row key to a table column.
type fieldDef struct {
	key    string
	column string
	kind   fieldKind
}

// fieldSet accumulates column/value pairs for dynamic INSERT and UPDATE
// statements. Only fields actually present on the row make it into the
// statement, so a partial row never clobbers existing data.
type fieldSet struct {
	columns []string
	values  []any
}

func (f *fieldSet) add(column string, value any) {
	f.columns = append(f.columns, column)
	f.values = append(f.values, value)
}

func (f *fieldSet) empty() bool {
	return len(f.columns) == 0
}

func (f *fieldSet) insertSQL(table string) (string, []any) {
	placeholders := make([]string, len(f.columns))
	for i := range f.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(f.columns, ", "), strings.Join(placeholders, ", "),
	)
	return query, f.values
}

func (f *fieldSet) updateSQL(table, keyColumn string, key any) (string, []any) {
	sets := make([]string, len(f.columns))
	for i, col := range f.columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args := append(append([]any{}, f.values...), key)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), keyColumn, len(args),
	)
	return query, args
}

// collectFields converts the row keys named by defs into typed column
// values. Blank strings count as absent, which is what CSV sources produce
// for cells the user left empty.
func collectFields(row types.Row, defs []fieldDef) *fieldSet {
	set := &fieldSet{}
	for _, def := range defs {
		if !row.Has(def.key) {
			continue
		}
		if s, ok := row[def.key].(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		switch def.kind {
		case fieldInt:
			set.add(def.column, row.Int64(def.key))
		case fieldFloat:
			set.add(def.column, row.Float64(def.key))
		case fieldBool:
			set.add(def.column, row.Bool(def.key))
		default:
			set.add(def.column, row.String(def.key))
		}
	}
	return set
}

// mergeDefaults fills configured default values into keys the row does not
// carry. The input row is left untouched.
func mergeDefaults(row, defaults types.Row) types.Row {
	if len(defaults) == 0 {
		return row
	}
	merged := row.Clone()
	for key, value := range defaults {
		if !merged.Has(key) {
			merged[key] = value
		}
	}
	return merged
}
