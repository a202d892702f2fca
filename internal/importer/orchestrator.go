package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// ErrorMode selects how record-level import failures are handled.
type ErrorMode string

const (
	// ErrorModeStrict aborts the batch on the first failed record.
	ErrorModeStrict ErrorMode = "strict"
	// ErrorModeLenient rolls the failed record back, logs it and continues.
	ErrorModeLenient ErrorMode = "lenient"
)

// RelationKind values accepted by the relation writer.
const (
	RelationSimilar   = "similar"
	RelationAccessory = "accessory"
)

type articleWriter interface {
	Write(ctx context.Context, q database.Querier, row types.Row, defaults types.Row) (WriterResult, error)
}

type priceWriter interface {
	Write(ctx context.Context, q database.Querier, articleID, variantID int64, rows []types.Row) error
}

type categoryWriter interface {
	Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error
}

type configuratorWriter interface {
	Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error
}

type propertyWriter interface {
	Write(ctx context.Context, q database.Querier, articleID int64, orderNumber string, rows []types.Row) error
}

type translationWriter interface {
	Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error
}

type relationWriter interface {
	Write(ctx context.Context, q database.Querier, articleID int64, mainNumber, kind string, processed bool, rows []types.Row) (unresolved []string, err error)
}

type imageWriter interface {
	Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error
}

// Orchestrator drives one import batch: it partitions the grouped rows by
// record ref and applies each article record inside its own transaction, so
// a malformed record cannot corrupt or block the rest of the batch.
type Orchestrator struct {
	db            database.TxBeginner
	mode          ErrorMode
	logger        zerolog.Logger
	articles      articleWriter
	prices        priceWriter
	categories    categoryWriter
	configurators configuratorWriter
	properties    propertyWriter
	translations  translationWriter
	relations     relationWriter
	images        imageWriter
}

// New creates an orchestrator with the default sub-writers.
func New(db database.TxBeginner, reg *attributes.Registry, mode ErrorMode, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		db:            db,
		mode:          mode,
		logger:        logger,
		articles:      NewArticleWriter(reg),
		prices:        NewPriceWriter(),
		categories:    NewCategoryWriter(),
		configurators: NewConfiguratorWriter(),
		properties:    NewPropertyWriter(),
		translations:  NewTranslationWriter(reg),
		relations:     NewRelationWriter(),
		images:        NewImageWriter(),
	}
}

// Write applies the batch record by record. Each article record commits or
// rolls back on its own; the returned result aggregates what happened.
func (o *Orchestrator) Write(ctx context.Context, batch *types.Batch, defaults types.Row) (*Result, error) {
	if batch == nil || len(batch.Articles()) == 0 {
		return nil, &types.ValidationError{Reason: "no article records were found"}
	}

	result := &Result{}

	for _, article := range batch.Articles() {
		if err := o.writeRecord(ctx, batch, article, defaults, result); err != nil {
			if !types.IsAdapterError(err) {
				return nil, err
			}
			if o.mode == ErrorModeStrict {
				return nil, err
			}
			result.Failed++
			result.addMessage(err.Error())
			o.logger.Warn().
				Str("orderNumber", article.Row.String("orderNumber")).
				Err(err).
				Msg("Skipped article record")
			continue
		}
		result.Written++
	}

	return result, nil
}

// writeRecord applies one article record inside one transaction.
func (o *Orchestrator) writeRecord(ctx context.Context, batch *types.Batch, article types.BatchRow, defaults types.Row, result *Result) error {
	tx, err := o.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = o.applyRecord(ctx, tx, batch, article, defaults, result)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			o.logger.Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit article record: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyRecord(ctx context.Context, tx database.Querier, batch *types.Batch, article types.BatchRow, defaults types.Row, result *Result) error {
	row := article.Row
	ref := article.Ref

	res, err := o.articles.Write(ctx, tx, row, defaults)
	if err != nil {
		return err
	}

	// A processed row is a placeholder created by an earlier export or
	// relation pass; everything except relations and images was already
	// materialized upstream.
	processed := row.Int64("processed") == 1

	if !processed {
		if err := o.prices.Write(ctx, tx, res.ArticleID, res.VariantID, batch.Rows(types.SectionPrice, ref)); err != nil {
			return err
		}

		categoryRows := filterCategoryRows(batch.Rows(types.SectionCategory, ref))
		if err := o.categories.Write(ctx, tx, res.ArticleID, categoryRows); err != nil {
			return err
		}

		if err := o.configurators.Write(ctx, tx, res, batch.Rows(types.SectionConfigurator, ref)); err != nil {
			return err
		}

		if res.IsMainVariant() {
			if err := o.properties.Write(ctx, tx, res.ArticleID, row.String("orderNumber"), batch.Rows(types.SectionPropertyValue, ref)); err != nil {
				return err
			}
		}

		if err := o.translations.Write(ctx, tx, res, batch.Rows(types.SectionTranslation, ref)); err != nil {
			return err
		}
	}

	mainNumber := row.String("mainNumber")
	if processed {
		// Placeholders stand in for their own main variant.
		mainNumber = row.String("orderNumber")
	}

	if res.IsMainVariant() {
		for _, kind := range []string{RelationAccessory, RelationSimilar} {
			section := types.SectionAccessory
			if kind == RelationSimilar {
				section = types.SectionSimilar
			}
			unresolved, err := o.relations.Write(ctx, tx, res.ArticleID, mainNumber, kind, processed, batch.Rows(section, ref))
			if err != nil {
				return err
			}
			for _, number := range unresolved {
				result.addUnprocessed(number)
			}
		}
	}

	return o.images.Write(ctx, tx, res.ArticleID, batch.Rows(types.SectionImage, ref))
}

// filterCategoryRows drops category rows carrying neither an id nor a path.
func filterCategoryRows(rows []types.Row) []types.Row {
	var out []types.Row
	for _, row := range rows {
		if row.Int64("categoryId") != 0 || row.String("categoryPath") != "" {
			out = append(out, row)
		}
	}
	return out
}
