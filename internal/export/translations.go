package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// TranslationAssembler merges explicit per-locale translation overrides with
// synthesized fallback rows so that every (variant, locale) pair yields
// exactly one row.
type TranslationAssembler struct {
	db     database.Querier
	reg    *attributes.Registry
	logger zerolog.Logger
}

// NewTranslationAssembler creates an assembler backed by the given querier.
func NewTranslationAssembler(db database.Querier, reg *attributes.Registry, logger zerolog.Logger) *TranslationAssembler {
	return &TranslationAssembler{db: db, reg: reg, logger: logger}
}

// translationFields maps stored payload keys to export column names.
func (a *TranslationAssembler) translationFields() map[string]string {
	fields := map[string]string{
		"name":            "name",
		"keywords":        "keywords",
		"metaTitle":       "metaTitle",
		"description":     "description",
		"descriptionLong": "descriptionLong",
		"additionalText":  "additionalText",
		"packUnit":        "packUnit",
		"shippingTime":    "shippingTime",
	}
	for _, col := range a.reg.Translatable(attributes.TableArticleAttributes) {
		fields[attributes.PayloadKey(col.Name)] = attributes.ExportAlias(col.Name)
	}
	return fields
}

type variantHelper struct {
	articleID int64
	kind      int64
}

// Assemble returns one row per (variant, non-default locale), in variant id
// input order and ascending locale order. Variants without an explicit
// override get identity-only rows; article-level overrides fill main
// variants field-wise and backfill a legacy subset for the rest.
func (a *TranslationAssembler) Assemble(ctx context.Context, variantIDs []int64) ([]types.Row, error) {
	if len(variantIDs) == 0 {
		return nil, &types.InvalidArgumentError{Reason: "can not assemble translations without ids"}
	}

	fields := a.translationFields()

	overrides, helpers, err := a.loadVariantOverrides(ctx, variantIDs, fields)
	if err != nil {
		return nil, err
	}

	locales, err := a.loadTranslationLocales(ctx)
	if err != nil {
		return nil, err
	}

	// Synthesize the full (variant x locale) grid. Rows without an explicit
	// override carry only identity fields for now.
	synthesized := make(map[int64]map[int64]bool)
	var result []types.Row
	for _, variantID := range variantIDs {
		helper, ok := helpers[variantID]
		if !ok {
			continue
		}
		for _, localeID := range locales {
			if row, ok := overrides[variantID][localeID]; ok {
				result = append(result, row)
				continue
			}
			if synthesized[variantID] == nil {
				synthesized[variantID] = make(map[int64]bool)
			}
			synthesized[variantID][localeID] = true
			result = append(result, types.Row{
				"articleId":   helper.articleID,
				"variantId":   variantID,
				"languageId":  localeID,
				"variantKind": helper.kind,
			})
		}
	}

	for _, row := range result {
		for _, field := range fields {
			if !row.Has(field) {
				row[field] = ""
			}
		}
	}

	if err := a.mergeArticleOverrides(ctx, variantIDs, result, synthesized, fields); err != nil {
		return nil, err
	}

	return result, nil
}

func (a *TranslationAssembler) loadVariantOverrides(
	ctx context.Context,
	variantIDs []int64,
	fields map[string]string,
) (map[int64]map[int64]types.Row, map[int64]variantHelper, error) {
	rows, err := a.db.Query(ctx, `
		SELECT variant.article_id, variant.id, variant.kind, t.locale_id, t.data
		FROM article_variants variant
		LEFT JOIN variant_translations t ON t.variant_id = variant.id
		WHERE variant.id = ANY($1)
		ORDER BY t.locale_id
	`, variantIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load variant translations: %w", err)
	}
	defer rows.Close()

	overrides := make(map[int64]map[int64]types.Row)
	helpers := make(map[int64]variantHelper)

	for rows.Next() {
		var articleID, variantID, kind int64
		var localeID *int64
		var data []byte
		if err := rows.Scan(&articleID, &variantID, &kind, &localeID, &data); err != nil {
			return nil, nil, fmt.Errorf("failed to scan variant translation: %w", err)
		}

		helpers[variantID] = variantHelper{articleID: articleID, kind: kind}
		if localeID == nil {
			continue
		}

		row := types.Row{
			"articleId":   articleID,
			"variantId":   variantID,
			"languageId":  *localeID,
			"variantKind": kind,
		}
		for key, value := range decodePayload(data, a.logger, "variant", variantID) {
			if field, ok := fields[key]; ok {
				row[field] = value
			}
		}

		if overrides[variantID] == nil {
			overrides[variantID] = make(map[int64]types.Row)
		}
		overrides[variantID][*localeID] = row
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return overrides, helpers, nil
}

// loadTranslationLocales returns all locale ids except the default, which
// holds the base data and never gets translation rows.
func (a *TranslationAssembler) loadTranslationLocales(ctx context.Context) ([]int64, error) {
	rows, err := a.db.Query(ctx, `SELECT id FROM locales WHERE is_default = FALSE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	defer rows.Close()

	var locales []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan locale: %w", err)
		}
		locales = append(locales, id)
	}
	return locales, rows.Err()
}

// legacyFallbackFields is the subset an article-level override can backfill
// on non-main variants that have no override of their own.
var legacyFallbackFields = []string{
	"name", "description", "descriptionLong", "metaTitle", "keywords", "shippingTime",
}

func (a *TranslationAssembler) mergeArticleOverrides(
	ctx context.Context,
	variantIDs []int64,
	result []types.Row,
	synthesized map[int64]map[int64]bool,
	fields map[string]string,
) error {
	rows, err := a.db.Query(ctx, `
		SELECT variant.article_id, t.locale_id, t.data
		FROM article_variants variant
		JOIN article_translations t ON t.article_id = variant.article_id
		WHERE variant.id = ANY($1)
		GROUP BY variant.article_id, t.locale_id, t.data
	`, variantIDs)
	if err != nil {
		return fmt.Errorf("failed to load article translations: %w", err)
	}
	defer rows.Close()

	byArticle := make(map[int64]map[int64]map[string]any)
	for rows.Next() {
		var articleID, localeID int64
		var data []byte
		if err := rows.Scan(&articleID, &localeID, &data); err != nil {
			return fmt.Errorf("failed to scan article translation: %w", err)
		}
		payload := decodePayload(data, a.logger, "article", articleID)
		if payload == nil {
			continue
		}
		if byArticle[articleID] == nil {
			byArticle[articleID] = make(map[int64]map[string]any)
		}
		byArticle[articleID][localeID] = payload
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, row := range result {
		articleID := row.Int64("articleId")
		variantID := row.Int64("variantId")
		localeID := row.Int64("languageId")

		payload, ok := byArticle[articleID][localeID]
		if !ok {
			continue
		}

		if row.Int64("variantKind") == types.MainKind {
			for key, field := range fields {
				if value, ok := payload[key]; ok && row.String(field) == "" {
					row[field] = value
				}
			}
			continue
		}

		// Non-main variants only fall back to the article override when they
		// had no override of their own.
		if !synthesized[variantID][localeID] {
			continue
		}
		for _, field := range legacyFallbackFields {
			if value, ok := payload[field]; ok && row.String(field) == "" {
				row[field] = value
			}
		}
	}

	return nil
}

// decodePayload unmarshals a stored translation payload. Corrupt payloads
// are skipped and logged, never fatal.
func decodePayload(data []byte, logger zerolog.Logger, kind string, id int64) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Warn().Err(err).Str("object", kind).Int64("id", id).Msg("Skipping unreadable translation payload")
		return nil
	}
	return payload
}
