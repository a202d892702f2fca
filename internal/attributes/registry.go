// Package attributes holds the custom-field schema for catalog entities.
// The column set is loaded once at startup from attribute_configuration and
// refreshed explicitly, never introspected per call.
package attributes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kosarica/catalog-service/internal/database"
)

// TableArticleAttributes is the attribute storage for article variants.
const TableArticleAttributes = "article_attributes"

// Column describes one configured attribute column.
type Column struct {
	Name         string
	Translatable bool
}

// Registry is a versioned snapshot of the attribute schema.
type Registry struct {
	mu     sync.RWMutex
	tables map[string][]Column
}

// NewRegistry returns an empty registry. Call Load before first use.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string][]Column)}
}

// Load replaces the snapshot with the current attribute configuration.
func (r *Registry) Load(ctx context.Context, q database.Querier) error {
	rows, err := q.Query(ctx, `
		SELECT table_name, column_name, translatable
		FROM attribute_configuration
		ORDER BY table_name, column_name
	`)
	if err != nil {
		return fmt.Errorf("failed to load attribute configuration: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]Column)
	for rows.Next() {
		var table, column string
		var translatable bool
		if err := rows.Scan(&table, &column, &translatable); err != nil {
			return fmt.Errorf("failed to scan attribute configuration: %w", err)
		}
		tables[table] = append(tables[table], Column{Name: column, Translatable: translatable})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read attribute configuration: %w", err)
	}

	r.mu.Lock()
	r.tables = tables
	r.mu.Unlock()
	return nil
}

// Columns returns all configured attribute columns of a table.
func (r *Registry) Columns(table string) []Column {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Column, len(r.tables[table]))
	copy(out, r.tables[table])
	return out
}

// Translatable returns only the translatable attribute columns of a table.
func (r *Registry) Translatable(table string) []Column {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Column
	for _, c := range r.tables[table] {
		if c.Translatable {
			out = append(out, c)
		}
	}
	return out
}

// Seed fills the registry without a database, for tests.
func (r *Registry) Seed(table string, columns []Column) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table] = columns
}

// PayloadKey namespaces a translatable attribute column inside stored
// translation payloads, e.g. "purchase_info" becomes
// "__attribute_purchase_info".
func PayloadKey(column string) string {
	return "__attribute_" + column
}

// ExportAlias maps an attribute column to its export column name,
// e.g. "purchase_info" becomes "attributePurchaseInfo".
func ExportAlias(column string) string {
	return "attribute" + PascalCase(column)
}

// PascalCase converts an underscored column name to PascalCase.
func PascalCase(column string) string {
	parts := strings.Split(column, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
