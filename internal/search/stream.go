// Package search resolves saved product streams against the catalog.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// Match is one article selected by a product stream, identified by its main
// variant's order number.
type Match struct {
	ArticleID   int64
	OrderNumber string
}

// Resolver resolves a product stream to its matching articles.
type Resolver interface {
	Resolve(ctx context.Context, streamID int64) ([]Match, error)
}

// Condition is one stored stream predicate.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// condFields whitelists stream condition fields and their SQL expressions.
var condFields = map[string]string{
	"name":        "article.name",
	"supplier_id": "article.supplier_id",
	"tax_id":      "article.tax_id",
	"active":      "article.active",
	"top_seller":  "article.top_seller",
	"keywords":    "article.keywords",
	"in_stock":    "variant.in_stock",
	"ean":         "variant.ean",
}

// StreamResolver loads stream conditions from the database and evaluates
// them against main variants.
type StreamResolver struct {
	db database.Querier
}

// NewStreamResolver creates a resolver backed by the given querier.
func NewStreamResolver(db database.Querier) *StreamResolver {
	return &StreamResolver{db: db}
}

// Resolve loads the stream's stored conditions and returns the matching
// articles. A stream with no usable conditions is treated as unresolved and
// rejected; a resolvable stream with zero matches returns an empty slice.
func (r *StreamResolver) Resolve(ctx context.Context, streamID int64) ([]Match, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT conditions FROM product_streams WHERE id = $1`, streamID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("product stream %d not found", streamID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product stream %d: %w", streamID, err)
	}

	var conditions []Condition
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &conditions); err != nil {
			return nil, fmt.Errorf("failed to decode conditions of product stream %d: %w", streamID, err)
		}
	}
	if len(conditions) == 0 {
		return nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("product stream %d not found", streamID)}
	}

	where, args, err := buildWhere(conditions)
	if err != nil {
		return nil, fmt.Errorf("product stream %d: %w", streamID, err)
	}

	query := fmt.Sprintf(`
		SELECT article.id, variant.order_number
		FROM articles article
		JOIN article_variants variant ON variant.article_id = article.id AND variant.kind = 1
		WHERE %s
		ORDER BY article.id
	`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search product stream %d: %w", streamID, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ArticleID, &m.OrderNumber); err != nil {
			return nil, fmt.Errorf("failed to scan stream match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func buildWhere(conditions []Condition) (string, []any, error) {
	var clauses []string
	var args []any

	for _, c := range conditions {
		expr, ok := condFields[c.Field]
		if !ok {
			return "", nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("unsupported condition field %q", c.Field)}
		}

		placeholder := fmt.Sprintf("$%d", len(args)+1)
		switch c.Op {
		case "eq", "":
			clauses = append(clauses, fmt.Sprintf("%s = %s", expr, placeholder))
			args = append(args, c.Value)
		case "neq":
			clauses = append(clauses, fmt.Sprintf("%s <> %s", expr, placeholder))
			args = append(args, c.Value)
		case "lt":
			clauses = append(clauses, fmt.Sprintf("%s < %s", expr, placeholder))
			args = append(args, c.Value)
		case "lte":
			clauses = append(clauses, fmt.Sprintf("%s <= %s", expr, placeholder))
			args = append(args, c.Value)
		case "gt":
			clauses = append(clauses, fmt.Sprintf("%s > %s", expr, placeholder))
			args = append(args, c.Value)
		case "gte":
			clauses = append(clauses, fmt.Sprintf("%s >= %s", expr, placeholder))
			args = append(args, c.Value)
		case "contains":
			clauses = append(clauses, fmt.Sprintf("%s ILIKE %s", expr, placeholder))
			args = append(args, "%"+fmt.Sprintf("%v", c.Value)+"%")
		case "in":
			values, ok := c.Value.([]any)
			if !ok || len(values) == 0 {
				return "", nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("condition field %q: 'in' needs a non-empty list", c.Field)}
			}
			clauses = append(clauses, fmt.Sprintf("%s = ANY(%s)", expr, placeholder))
			args = append(args, values)
		default:
			return "", nil, &types.InvalidArgumentError{Reason: fmt.Sprintf("unsupported condition operator %q", c.Op)}
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}
