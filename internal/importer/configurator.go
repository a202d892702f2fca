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

// ConfiguratorWriter maintains the configurator set of an article and links
// the imported variant to its options, creating groups and options on the
// fly.
type ConfiguratorWriter struct{}

// NewConfiguratorWriter creates a configurator writer.
func NewConfiguratorWriter() *ConfiguratorWriter {
	return &ConfiguratorWriter{}
}

// Write applies the configurator rows of one article record.
func (w *ConfiguratorWriter) Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	setID, err := w.ensureSet(ctx, q, res, rows[0])
	if err != nil {
		return err
	}

	for _, row := range rows {
		optionName := strings.TrimSpace(row.String("configOptionName"))
		if optionName == "" {
			continue
		}

		groupID, err := w.resolveGroup(ctx, q, row, optionName)
		if err != nil {
			return err
		}

		var optionID int64
		err = q.QueryRow(ctx, `
			INSERT INTO configurator_options (group_id, name, position) VALUES ($1, $2, $3)
			ON CONFLICT (group_id, name) DO UPDATE SET position = EXCLUDED.position
			RETURNING id
		`, groupID, optionName, row.Int64("configOptionPosition")).Scan(&optionID)
		if err != nil {
			return fmt.Errorf("failed to resolve configurator option %q: %w", optionName, err)
		}

		links := []struct {
			query string
			args  []any
		}{
			{`INSERT INTO configurator_set_groups (set_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, []any{setID, groupID}},
			{`INSERT INTO configurator_set_options (set_id, option_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, []any{setID, optionID}},
			{`INSERT INTO variant_configurator_options (variant_id, option_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, []any{res.VariantID, optionID}},
		}
		for _, link := range links {
			if _, err := q.Exec(ctx, link.query, link.args...); err != nil {
				return fmt.Errorf("failed to link configurator option %q: %w", optionName, err)
			}
		}
	}
	return nil
}

// ensureSet returns the article's configurator set id, creating and
// attaching a set when the article has none yet.
func (w *ConfiguratorWriter) ensureSet(ctx context.Context, q database.Querier, res WriterResult, first types.Row) (int64, error) {
	var setID *int64
	err := q.QueryRow(ctx, `SELECT configurator_set_id FROM articles WHERE id = $1`, res.ArticleID).Scan(&setID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up configurator set of article %d: %w", res.ArticleID, err)
	}
	if setID != nil {
		return *setID, nil
	}

	name := strings.TrimSpace(first.String("configSetName"))
	if name == "" {
		var orderNumber string
		err := q.QueryRow(ctx, `SELECT order_number FROM article_variants WHERE id = $1`, res.MainVariantID).Scan(&orderNumber)
		if err != nil {
			return 0, fmt.Errorf("failed to name configurator set for article %d: %w", res.ArticleID, err)
		}
		name = "Set-" + orderNumber
	}

	var id int64
	err = q.QueryRow(ctx, `
		INSERT INTO configurator_sets (name, type) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET type = EXCLUDED.type
		RETURNING id
	`, name, first.Int64("configSetType")).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create configurator set %q: %w", name, err)
	}

	if _, err := q.Exec(ctx, `UPDATE articles SET configurator_set_id = $1 WHERE id = $2`, id, res.ArticleID); err != nil {
		return 0, fmt.Errorf("failed to attach configurator set %q: %w", name, err)
	}
	return id, nil
}

func (w *ConfiguratorWriter) resolveGroup(ctx context.Context, q database.Querier, row types.Row, optionName string) (int64, error) {
	if id := row.Int64("configGroupId"); id != 0 {
		var exists bool
		err := q.QueryRow(ctx, `SELECT TRUE FROM configurator_groups WHERE id = $1`, id).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, types.Adapterf("configurator group %d was not found", id)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to look up configurator group %d: %w", id, err)
		}
		return id, nil
	}

	name := strings.TrimSpace(row.String("configGroupName"))
	if name == "" {
		return 0, types.Adapterf("configurator option %q has no group", optionName)
	}

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO configurator_groups (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, row.String("configGroupDescription")).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve configurator group %q: %w", name, err)
	}
	return id, nil
}
