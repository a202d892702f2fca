package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kosarica/catalog-service/internal/types"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx. Export
// projections run against the pool; import writers run against the current
// record's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner opens transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CollectRows drains a result set into flat rows keyed by column alias.
// Column order is preserved via FieldDescriptions on the caller side when
// needed; the row itself is a plain map.
func CollectRows(rows pgx.Rows) ([]types.Row, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []types.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(types.Row, len(fields))
		for i, field := range fields {
			row[string(field.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
