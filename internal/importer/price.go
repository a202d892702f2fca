package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// DefaultPriceGroup is assumed when a price row names no customer group.
const DefaultPriceGroup = "EK"

// PriceWriter upserts tier prices for one variant. Incoming prices from
// tax-inclusive customer groups are converted to net before storage.
type PriceWriter struct{}

// NewPriceWriter creates a price writer.
func NewPriceWriter() *PriceWriter {
	return &PriceWriter{}
}

// Write applies the price rows of one article record.
func (w *PriceWriter) Write(ctx context.Context, q database.Querier, articleID, variantID int64, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	taxRate, err := articleTaxRate(ctx, q, articleID)
	if err != nil {
		return err
	}

	for _, row := range rows {
		group := row.String("priceGroup")
		if group == "" {
			group = DefaultPriceGroup
		}

		var taxInput bool
		err := q.QueryRow(ctx, `SELECT tax_input FROM customer_groups WHERE key = $1`, group).Scan(&taxInput)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Adapterf("customer group %s was not found", group)
		}
		if err != nil {
			return fmt.Errorf("failed to look up customer group %s: %w", group, err)
		}

		from := row.Int64("from")
		if from <= 0 {
			from = 1
		}

		price := row.Float64("price")
		if price <= 0 {
			if from == 1 {
				return types.Adapterf("article %d has no price for customer group %s", articleID, group)
			}
			continue
		}
		pseudoPrice := row.Float64("pseudoPrice")

		if taxInput {
			price = price * 100 / (100 + taxRate)
			pseudoPrice = pseudoPrice * 100 / (100 + taxRate)
		}

		var to any
		if v := row.Int64("to"); v > 0 {
			to = v
		}

		_, err = q.Exec(ctx, `
			INSERT INTO variant_prices (article_id, variant_id, customer_group_key, from_qty, to_qty, price, pseudo_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (variant_id, customer_group_key, from_qty)
			DO UPDATE SET to_qty = EXCLUDED.to_qty, price = EXCLUDED.price, pseudo_price = EXCLUDED.pseudo_price
		`, articleID, variantID, group, from, to, price, pseudoPrice)
		if err != nil {
			return fmt.Errorf("failed to write price for variant %d: %w", variantID, err)
		}
	}
	return nil
}

func articleTaxRate(ctx context.Context, q database.Querier, articleID int64) (float64, error) {
	var rate float64
	err := q.QueryRow(ctx, `
		SELECT COALESCE(tax.rate, 0)
		FROM articles article
		LEFT JOIN taxes tax ON tax.id = article.tax_id
		WHERE article.id = $1
	`, articleID).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("failed to look up tax rate of article %d: %w", articleID, err)
	}
	return rate, nil
}
