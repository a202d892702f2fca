package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// RelationWriter replaces an article's similar or accessory links. The
// other side of a link is resolved by order number; links whose target does
// not exist yet are skipped, never fatal.
type RelationWriter struct{}

// NewRelationWriter creates a relation writer.
func NewRelationWriter() *RelationWriter {
	return &RelationWriter{}
}

// Write applies the relation rows of one kind for one article record. It
// returns the order numbers it could not resolve so the caller can schedule
// placeholder imports; on a processed pass unresolved targets are dropped
// silently instead.
func (w *RelationWriter) Write(ctx context.Context, q database.Querier, articleID int64, mainNumber, kind string, processed bool, rows []types.Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var related []int64
	var unresolved []string
	for _, row := range rows {
		number := strings.TrimSpace(row.String("ordernumber"))
		if number == "" || number == mainNumber {
			continue
		}

		var relatedID int64
		err := q.QueryRow(ctx, `SELECT article_id FROM article_variants WHERE order_number = $1`, number).Scan(&relatedID)
		if errors.Is(err, pgx.ErrNoRows) {
			if !processed {
				unresolved = append(unresolved, number)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s relation target %s: %w", kind, number, err)
		}
		related = append(related, relatedID)
	}

	// Replace the full link set so re-importing the same batch never
	// accumulates duplicates.
	if _, err := q.Exec(ctx, `DELETE FROM article_relations WHERE article_id = $1 AND kind = $2`, articleID, kind); err != nil {
		return nil, fmt.Errorf("failed to clear %s relations of article %d: %w", kind, articleID, err)
	}
	for _, relatedID := range related {
		_, err := q.Exec(ctx, `
			INSERT INTO article_relations (article_id, related_article_id, kind) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, articleID, relatedID, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to link article %d to %d as %s: %w", articleID, relatedID, kind, err)
		}
	}
	return unresolved, nil
}
