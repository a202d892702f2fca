package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// CategoryWriter assigns articles to category nodes, creating missing nodes
// along a textual path when a row names one.
type CategoryWriter struct{}

// NewCategoryWriter creates a category writer.
func NewCategoryWriter() *CategoryWriter {
	return &CategoryWriter{}
}

// Write applies the category rows of one article record. Rows may reference
// a category by id, by display path, or both; the id wins when it resolves.
func (w *CategoryWriter) Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error {
	for _, row := range rows {
		categoryID := row.Int64("categoryId")
		path := strings.TrimSpace(row.String("categoryPath"))

		if categoryID != 0 {
			var exists bool
			err := q.QueryRow(ctx, `SELECT TRUE FROM categories WHERE id = $1`, categoryID).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				if path == "" {
					return types.Adapterf("category %d was not found", categoryID)
				}
				categoryID = 0
			} else if err != nil {
				return fmt.Errorf("failed to look up category %d: %w", categoryID, err)
			}
		}

		if categoryID == 0 {
			id, err := w.resolvePath(ctx, q, path)
			if err != nil {
				return err
			}
			categoryID = id
		}

		_, err := q.Exec(ctx, `
			INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, articleID, categoryID)
		if err != nil {
			return fmt.Errorf("failed to assign article %d to category %d: %w", articleID, categoryID, err)
		}
	}
	return nil
}

// resolvePath walks a display path like "Shoes->Men->Boots" from the root,
// creating missing nodes, and returns the leaf category id. Created nodes
// store their ancestor id chain root-first.
func (w *CategoryWriter) resolvePath(ctx context.Context, q database.Querier, path string) (int64, error) {
	var parentID any
	var chain []string
	var currentID int64

	for _, name := range strings.Split(path, types.PathSeparator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var id int64
		err := q.QueryRow(ctx,
			`SELECT id FROM categories WHERE name = $1 AND parent_id IS NOT DISTINCT FROM $2`,
			name, parentID,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = q.QueryRow(ctx,
				`INSERT INTO categories (parent_id, name, path) VALUES ($1, $2, $3) RETURNING id`,
				parentID, name, strings.Join(chain, "|"),
			).Scan(&id)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to resolve category %q in path %q: %w", name, path, err)
		}

		chain = append(chain, strconv.FormatInt(id, 10))
		parentID = id
		currentID = id
	}

	if currentID == 0 {
		return 0, types.Adapterf("category path %q could not be resolved", path)
	}
	return currentID, nil
}
