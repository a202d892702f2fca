package export

import (
	"context"
	"fmt"
	"html"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/types"
)

// Projector builds the wide, denormalized read views of an export: one
// independent query per record group, all filtered to the same variant id
// set and post-processed per group.
type Projector struct {
	db           database.Querier
	reg          *attributes.Registry
	media        media.Resolver
	translations *TranslationAssembler
	logger       zerolog.Logger
}

// NewProjector creates a projector backed by the given querier.
func NewProjector(db database.Querier, reg *attributes.Registry, resolver media.Resolver, logger zerolog.Logger) *Projector {
	return &Projector{
		db:           db,
		reg:          reg,
		media:        resolver,
		translations: NewTranslationAssembler(db, reg, logger),
		logger:       logger,
	}
}

// DefaultColumns returns the full export column set per section.
func (p *Projector) DefaultColumns() Columns {
	return Columns{
		types.SectionArticle:       articleColumns(p.reg).order,
		types.SectionPrice:         priceColumns().order,
		types.SectionImage:         imageColumns().order,
		types.SectionPropertyValue: propertyValueColumns().order,
		types.SectionSimilar:       similarColumns().order,
		types.SectionAccessory:     accessoryColumns().order,
		types.SectionConfigurator:  configuratorColumns().order,
		types.SectionCategory:      categoryColumns().order,
		types.SectionTranslation:   translationColumnNames(p.reg),
	}
}

// Project reads all record groups for the given variant ids. Each group is
// one query; the groups are independent and run concurrently, so the backing
// querier must be safe for concurrent use (the pool is, a transaction is not).
// Results are transient read-only snapshots.
func (p *Projector) Project(ctx context.Context, ids []int64, columns Columns) (map[types.Section][]types.Row, error) {
	if len(ids) == 0 {
		return nil, &types.InvalidArgumentError{Reason: "can not read articles without ids"}
	}
	if len(columns) == 0 {
		return nil, &types.InvalidArgumentError{Reason: "can not read articles without column names"}
	}

	var (
		articleRows      []types.Row
		priceRows        []types.Row
		imageRows        []types.Row
		propertyRows     []types.Row
		configuratorRows []types.Row
		similarRows      []types.Row
		accessoryRows    []types.Row
		categoryRows     []types.Row
		translationRows  []types.Row
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		articleRows, err = p.projectArticles(ctx, ids, columns[types.SectionArticle])
		return err
	})

	g.Go(func() error {
		var err error
		priceRows, err = p.projectPrices(ctx, ids, columns[types.SectionPrice])
		return err
	})

	g.Go(func() error {
		var err error
		imageRows, err = p.projectImages(ctx, ids, columns[types.SectionImage])
		return err
	})

	g.Go(func() error {
		rows, err := p.querySection(ctx, propertyValueColumns(), columns[types.SectionPropertyValue], `
			FROM article_variants variant
			JOIN articles article ON article.id = variant.article_id
			JOIN property_groups property_group ON property_group.id = article.filter_group_id
			JOIN article_property_values apv ON apv.article_id = article.id
			JOIN property_values property_value ON property_value.id = apv.value_id
			JOIN property_options property_option ON property_option.id = property_value.option_id
			WHERE variant.id = ANY($1) AND variant.kind = 1
			ORDER BY article.id, property_value.position, property_value.id
		`, ids)
		if err != nil {
			return fmt.Errorf("property projection: %w", err)
		}
		propertyRows = rows
		return nil
	})

	g.Go(func() error {
		rows, err := p.querySection(ctx, configuratorColumns(), columns[types.SectionConfigurator], `
			FROM article_variants variant
			JOIN articles article ON article.id = variant.article_id
			JOIN variant_configurator_options vco ON vco.variant_id = variant.id
			JOIN configurator_options config_option ON config_option.id = vco.option_id
			JOIN configurator_groups config_group ON config_group.id = config_option.group_id
			JOIN configurator_sets config_set ON config_set.id = article.configurator_set_id
			WHERE variant.id = ANY($1)
			ORDER BY variant.id, config_group.position, config_option.position
		`, ids)
		if err != nil {
			return fmt.Errorf("configurator projection: %w", err)
		}
		configuratorRows = rows
		return nil
	})

	g.Go(func() error {
		rows, err := p.querySection(ctx, similarColumns(), columns[types.SectionSimilar], `
			FROM article_variants variant
			JOIN articles article ON article.id = variant.article_id
			JOIN article_relations rel ON rel.article_id = article.id AND rel.kind = 'similar'
			JOIN articles similar ON similar.id = rel.related_article_id
			JOIN article_variants similar_variant
				ON similar_variant.article_id = similar.id AND similar_variant.kind = 1
			WHERE variant.id = ANY($1) AND variant.kind = 1
			ORDER BY article.id, similar.id
		`, ids)
		if err != nil {
			return fmt.Errorf("similar projection: %w", err)
		}
		similarRows = rows
		return nil
	})

	g.Go(func() error {
		rows, err := p.querySection(ctx, accessoryColumns(), columns[types.SectionAccessory], `
			FROM article_variants variant
			JOIN articles article ON article.id = variant.article_id
			JOIN article_relations rel ON rel.article_id = article.id AND rel.kind = 'accessory'
			JOIN articles accessory ON accessory.id = rel.related_article_id
			JOIN article_variants accessory_variant
				ON accessory_variant.article_id = accessory.id AND accessory_variant.kind = 1
			WHERE variant.id = ANY($1) AND variant.kind = 1
			ORDER BY article.id, accessory.id
		`, ids)
		if err != nil {
			return fmt.Errorf("accessory projection: %w", err)
		}
		accessoryRows = rows
		return nil
	})

	g.Go(func() error {
		var err error
		categoryRows, err = p.projectCategories(ctx, ids, columns[types.SectionCategory])
		return err
	})

	g.Go(func() error {
		rows, err := p.translations.Assemble(ctx, ids)
		if err != nil {
			return fmt.Errorf("translation projection: %w", err)
		}
		translationRows = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[types.Section][]types.Row{
		types.SectionArticle:       articleRows,
		types.SectionPrice:         priceRows,
		types.SectionImage:         imageRows,
		types.SectionPropertyValue: propertyRows,
		types.SectionConfigurator:  configuratorRows,
		types.SectionSimilar:       similarRows,
		types.SectionAccessory:     accessoryRows,
		types.SectionCategory:      categoryRows,
		types.SectionTranslation:   translationRows,
	}, nil
}

func (p *Projector) querySection(ctx context.Context, spec *columnSpec, aliases []string, fromClause string, ids []int64) ([]types.Row, error) {
	if len(aliases) == 0 {
		aliases = spec.order
	}
	selectList, err := spec.selectList(aliases)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx, "SELECT "+selectList+" "+fromClause, ids)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows)
}

func (p *Projector) projectArticles(ctx context.Context, ids []int64, aliases []string) ([]types.Row, error) {
	rows, err := p.querySection(ctx, articleColumns(p.reg), aliases, `
		FROM article_variants variant
		JOIN articles article ON article.id = variant.article_id
		LEFT JOIN article_variants mv ON mv.article_id = article.id AND mv.kind = 1
		LEFT JOIN article_attributes attribute ON attribute.variant_id = variant.id
		LEFT JOIN taxes article_tax ON article_tax.id = article.tax_id
		LEFT JOIN suppliers supplier ON supplier.id = article.supplier_id
		LEFT JOIN property_groups filter_group ON filter_group.id = article.filter_group_id
		LEFT JOIN units variant_unit ON variant_unit.id = variant.unit_id
		WHERE variant.id = ANY($1)
		ORDER BY variant.article_id, variant.kind
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("article projection: %w", err)
	}

	for _, row := range rows {
		decodeTextFields(row)
		if row.Has("inStock") && row.String("inStock") == "" {
			row["inStock"] = "0"
		}
	}
	return rows, nil
}

func (p *Projector) projectPrices(ctx context.Context, ids []int64, aliases []string) ([]types.Row, error) {
	spec := priceColumns()
	if len(aliases) == 0 {
		aliases = spec.order
	}
	selectList, err := spec.selectList(aliases)
	if err != nil {
		return nil, err
	}
	// The tax flag and rate are always read; the gross conversion needs them
	// even when the caller did not ask for them.
	selectList += `, customer_group.tax_input AS "taxInput", article_tax.rate AS "tax"`

	rows, err := p.db.Query(ctx, `SELECT `+selectList+`
		FROM article_variants variant
		JOIN articles article ON article.id = variant.article_id
		LEFT JOIN variant_prices prices ON prices.variant_id = variant.id
		LEFT JOIN customer_groups customer_group ON customer_group.key = prices.customer_group_key
		LEFT JOIN taxes article_tax ON article_tax.id = article.tax_id
		WHERE variant.id = ANY($1)
		ORDER BY variant.id, prices.customer_group_key, prices.from_qty
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("price projection: %w", err)
	}

	result, err := database.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("price projection: %w", err)
	}

	for _, row := range result {
		applyGrossPrice(row)
	}
	return result, nil
}

// applyGrossPrice converts net prices to gross for tax-inclusive customer
// groups and rounds all prices to two decimals.
func applyGrossPrice(row types.Row) {
	tax := row.Float64("tax")
	convert := func(field string) {
		if !row.Has(field) {
			return
		}
		value := row.Float64(field)
		if row.Bool("taxInput") {
			value = value * (100 + tax) / 100
		}
		row[field] = round2(value)
	}
	convert("price")
	convert("pseudoPrice")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (p *Projector) projectImages(ctx context.Context, ids []int64, aliases []string) ([]types.Row, error) {
	rows, err := p.querySection(ctx, imageColumns(), aliases, `
		FROM article_variants variant
		JOIN articles article ON article.id = variant.article_id
		JOIN article_images images ON images.article_id = article.id
		WHERE variant.id = ANY($1) AND variant.kind = 1
		ORDER BY article.id, images.position, images.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("image projection: %w", err)
	}

	for _, row := range rows {
		if row.Has("imageUrl") {
			row["imageUrl"] = p.media.URL(row.String("imageUrl"))
		}
	}
	return rows, nil
}

func (p *Projector) projectCategories(ctx context.Context, variantIDs []int64, aliases []string) ([]types.Row, error) {
	articleIDs, err := p.articleIDsForVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	if len(articleIDs) == 0 {
		return nil, nil
	}

	rows, err := p.querySection(ctx, categoryColumns(), aliases, `
		FROM articles article
		JOIN article_categories ac ON ac.article_id = article.id
		JOIN categories category ON category.id = ac.category_id
		WHERE article.id = ANY($1)
		ORDER BY article.id, category.id
	`, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("category projection: %w", err)
	}

	names, err := resolveCategoryNames(ctx, p.db, collectPathIDs(rows))
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ownName := names[row.Int64("categoryId")]
		row["categoryPath"] = renderCategoryPath(row.String("categoryPath"), ownName, names)
	}
	return rows, nil
}

func (p *Projector) articleIDsForVariants(ctx context.Context, variantIDs []int64) ([]int64, error) {
	rows, err := p.db.Query(ctx, `
		SELECT DISTINCT article_id
		FROM article_variants
		WHERE id = ANY($1)
		ORDER BY article_id
	`, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to map variants to articles: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// textFields are the article columns that may contain HTML-escaped entities
// from legacy imports.
var textFields = []string{"name", "description", "descriptionLong", "metaTitle", "keywords", "additionalText"}

func decodeTextFields(row types.Row) {
	for _, field := range textFields {
		if row.Has(field) {
			if s, ok := row[field].(string); ok {
				row[field] = html.UnescapeString(s)
			}
		}
	}
}
