package export

import (
	"context"
	"fmt"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/search"
	"github.com/kosarica/catalog-service/internal/types"
)

// Filter selects which variants an export covers. Zero values mean "not
// set"; Category and Stream are mutually exclusive, Category winning when
// both are present.
type Filter struct {
	Variants   bool  // include non-main variants
	CategoryID int64 // restrict to a category subtree
	StreamID   int64 // restrict to a product stream
}

// IDResolver turns a logical export filter into a concrete ordered list of
// variant ids.
type IDResolver struct {
	db      database.Querier
	streams search.Resolver
}

// NewIDResolver creates a resolver backed by the given querier and stream
// resolver.
func NewIDResolver(db database.Querier, streams search.Resolver) *IDResolver {
	return &IDResolver{db: db, streams: streams}
}

// ResolveIDs returns the variant ids selected by the filter, ordered by
// (article id, kind). Offset and limit apply after filtering; zero limit
// means unlimited.
func (r *IDResolver) ResolveIDs(ctx context.Context, filter Filter, offset, limit int) ([]int64, error) {
	where := "TRUE"
	args := []any{}

	if !filter.Variants {
		where = fmt.Sprintf("variant.kind = %d", types.MainKind)
	}

	switch {
	case filter.CategoryID != 0:
		articleIDs, err := r.articleIDsInCategorySubtree(ctx, filter.CategoryID)
		if err != nil {
			return nil, err
		}
		args = append(args, articleIDs)
		where += fmt.Sprintf(" AND variant.article_id = ANY($%d)", len(args))

	case filter.StreamID != 0:
		matches, err := r.streams.Resolve(ctx, filter.StreamID)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return []int64{}, nil
		}
		if filter.Variants {
			articleIDs := make([]int64, 0, len(matches))
			for _, m := range matches {
				articleIDs = append(articleIDs, m.ArticleID)
			}
			args = append(args, articleIDs)
			where += fmt.Sprintf(" AND variant.article_id = ANY($%d)", len(args))
		} else {
			orderNumbers := make([]string, 0, len(matches))
			for _, m := range matches {
				orderNumbers = append(orderNumbers, m.OrderNumber)
			}
			args = append(args, orderNumbers)
			where += fmt.Sprintf(" AND variant.order_number = ANY($%d)", len(args))
		}
	}

	query := fmt.Sprintf(`
		SELECT variant.id
		FROM article_variants variant
		WHERE %s
		ORDER BY variant.article_id, variant.kind, variant.id
	`, where)
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan export id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// articleIDsInCategorySubtree collects the filter category and all its
// descendants, then returns the articles assigned to any of them.
func (r *IDResolver) articleIDsInCategorySubtree(ctx context.Context, categoryID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id, parent_id FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	children := make(map[int64][]int64)
	known := make(map[int64]bool)
	for rows.Next() {
		var id int64
		var parentID *int64
		if err := rows.Scan(&id, &parentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		known[id] = true
		if parentID != nil {
			children[*parentID] = append(children[*parentID], id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !known[categoryID] {
		return nil, &types.NotFoundError{Entity: "category", ID: categoryID}
	}

	subtree := collectSubtree(categoryID, children)

	articleRows, err := r.db.Query(ctx, `
		SELECT DISTINCT article_id
		FROM article_categories
		WHERE category_id = ANY($1)
		ORDER BY article_id
	`, subtree)
	if err != nil {
		return nil, fmt.Errorf("failed to load category assignments: %w", err)
	}
	defer articleRows.Close()

	var articleIDs []int64
	for articleRows.Next() {
		var id int64
		if err := articleRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		articleIDs = append(articleIDs, id)
	}
	return articleIDs, articleRows.Err()
}

// collectSubtree walks the category tree depth first from root.
func collectSubtree(root int64, children map[int64][]int64) []int64 {
	ids := []int64{root}
	for _, child := range children[root] {
		ids = append(ids, collectSubtree(child, children)...)
	}
	return ids
}
