package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// coreTranslatableFields are the fixed translatable fields next to the
// dynamically configured attribute columns.
var coreTranslatableFields = []string{
	"name", "keywords", "metaTitle", "description", "descriptionLong",
	"additionalText", "packUnit", "shippingTime",
}

// TranslationWriter stores per-locale field overrides. Main variant rows go
// to article level, everything else to variant level, matching where the
// export assembler looks them up.
type TranslationWriter struct {
	reg *attributes.Registry
}

// NewTranslationWriter creates a translation writer.
func NewTranslationWriter(reg *attributes.Registry) *TranslationWriter {
	return &TranslationWriter{reg: reg}
}

// Write applies the translation rows of one article record.
func (w *TranslationWriter) Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error {
	for _, row := range rows {
		localeID := row.Int64("languageId")
		if localeID == 0 {
			return types.Adapterf("translation row for article %d has no language id", res.ArticleID)
		}

		var isDefault bool
		err := q.QueryRow(ctx, `SELECT is_default FROM locales WHERE id = $1`, localeID).Scan(&isDefault)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Adapterf("language %d was not found", localeID)
		}
		if err != nil {
			return fmt.Errorf("failed to look up language %d: %w", localeID, err)
		}
		if isDefault {
			// Base-language data lives on the entity itself.
			continue
		}

		payload := w.collectPayload(row)
		if len(payload) == 0 {
			continue
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode translation for article %d: %w", res.ArticleID, err)
		}

		if res.IsMainVariant() {
			_, err = q.Exec(ctx, `
				INSERT INTO article_translations (article_id, locale_id, data) VALUES ($1, $2, $3)
				ON CONFLICT (article_id, locale_id) DO UPDATE SET data = article_translations.data || EXCLUDED.data
			`, res.ArticleID, localeID, data)
		} else {
			_, err = q.Exec(ctx, `
				INSERT INTO variant_translations (variant_id, locale_id, data) VALUES ($1, $2, $3)
				ON CONFLICT (variant_id, locale_id) DO UPDATE SET data = variant_translations.data || EXCLUDED.data
			`, res.VariantID, localeID, data)
		}
		if err != nil {
			return fmt.Errorf("failed to write translation for article %d language %d: %w", res.ArticleID, localeID, err)
		}
	}
	return nil
}

func (w *TranslationWriter) collectPayload(row types.Row) map[string]any {
	payload := make(map[string]any)
	for _, field := range coreTranslatableFields {
		if row.Has(field) && row.String(field) != "" {
			payload[field] = row[field]
		}
	}
	for _, col := range w.reg.Translatable(attributes.TableArticleAttributes) {
		alias := attributes.ExportAlias(col.Name)
		if row.Has(alias) && row.String(alias) != "" {
			payload[attributes.PayloadKey(col.Name)] = row[alias]
		}
	}
	return payload
}
