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

// PropertyWriter maintains an article's filter group and its assigned
// property values, creating groups, options and values on the fly.
type PropertyWriter struct{}

// NewPropertyWriter creates a property writer.
func NewPropertyWriter() *PropertyWriter {
	return &PropertyWriter{}
}

// Write applies the property value rows of one article record.
func (w *PropertyWriter) Write(ctx context.Context, q database.Querier, articleID int64, orderNumber string, rows []types.Row) error {
	for _, row := range rows {
		if _, err := w.ensureFilterGroup(ctx, q, articleID, orderNumber, row); err != nil {
			return err
		}

		valueID := row.Int64("propertyValueId")
		if valueID != 0 {
			var exists bool
			err := q.QueryRow(ctx, `SELECT TRUE FROM property_values WHERE id = $1`, valueID).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				return types.Adapterf("property value %d was not found", valueID)
			}
			if err != nil {
				return fmt.Errorf("failed to look up property value %d: %w", valueID, err)
			}
		} else {
			var err error
			valueID, err = w.createValue(ctx, q, orderNumber, row)
			if err != nil {
				return err
			}
		}

		_, err := q.Exec(ctx, `
			INSERT INTO article_property_values (article_id, value_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, articleID, valueID)
		if err != nil {
			return fmt.Errorf("failed to assign property value %d to article %d: %w", valueID, articleID, err)
		}
	}
	return nil
}

func (w *PropertyWriter) createValue(ctx context.Context, q database.Querier, orderNumber string, row types.Row) (int64, error) {
	optionName := strings.TrimSpace(row.String("propertyOptionName"))
	valueName := strings.TrimSpace(row.String("propertyValueName"))
	if optionName == "" || valueName == "" {
		return 0, types.Adapterf("property row for article %s needs a value id or an option and value name", orderNumber)
	}

	var optionID int64
	err := q.QueryRow(ctx, `
		INSERT INTO property_options (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, optionName).Scan(&optionID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve property option %q: %w", optionName, err)
	}

	var valueID int64
	err = q.QueryRow(ctx, `
		INSERT INTO property_values (option_id, value, position) VALUES ($1, $2, $3)
		ON CONFLICT (option_id, value) DO UPDATE SET position = EXCLUDED.position
		RETURNING id
	`, optionID, valueName, row.Int64("propertyValuePosition")).Scan(&valueID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve property value %q: %w", valueName, err)
	}
	return valueID, nil
}

// ensureFilterGroup resolves the article's filter group, creating and
// attaching one when the row names a group the article does not have yet.
func (w *PropertyWriter) ensureFilterGroup(ctx context.Context, q database.Querier, articleID int64, orderNumber string, row types.Row) (int64, error) {
	name := strings.TrimSpace(row.String("propertyGroupName"))
	if name == "" {
		var groupID *int64
		err := q.QueryRow(ctx, `SELECT filter_group_id FROM articles WHERE id = $1`, articleID).Scan(&groupID)
		if err != nil {
			return 0, fmt.Errorf("failed to look up filter group of article %d: %w", articleID, err)
		}
		if groupID == nil {
			return 0, types.Adapterf("property group is missing for article %s", orderNumber)
		}
		return *groupID, nil
	}

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO property_groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve property group %q: %w", name, err)
	}

	if _, err := q.Exec(ctx, `UPDATE articles SET filter_group_id = $1 WHERE id = $2`, id, articleID); err != nil {
		return 0, fmt.Errorf("failed to attach property group %q: %w", name, err)
	}
	return id, nil
}
