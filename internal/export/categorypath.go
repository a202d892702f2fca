package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// collectPathIDs gathers every distinct category id referenced by the rows,
// both the assigned category itself and all ancestors in its stored path
// chain, so names can be resolved in one batch.
func collectPathIDs(rows []types.Row) []int64 {
	seen := make(map[int64]bool)
	var ids []int64

	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, row := range rows {
		add(row.Int64("categoryId"))
		for _, part := range strings.Split(row.String("categoryPath"), "|") {
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				add(id)
			}
		}
	}
	return ids
}

// resolveCategoryNames batch-resolves category ids to display names.
func resolveCategoryNames(ctx context.Context, db database.Querier, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := db.Query(ctx, `SELECT id, name FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// renderCategoryPath turns a stored root-first ancestor id chain ("3|7")
// plus the row's own category name into the display path
// ("Shoes->Men->Boots"). Unresolvable ids are dropped.
func renderCategoryPath(pathChain string, ownName string, names map[int64]string) string {
	var parts []string
	for _, part := range strings.Split(pathChain, "|") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		if name, ok := names[id]; ok && name != "" {
			parts = append(parts, name)
		}
	}
	if ownName != "" {
		parts = append(parts, ownName)
	}
	return strings.Join(parts, types.PathSeparator)
}
