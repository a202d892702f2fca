package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

var articleFieldDefs = []fieldDef{
	{"name", "name", fieldText},
	{"description", "description", fieldText},
	{"descriptionLong", "description_long", fieldText},
	{"metaTitle", "meta_title", fieldText},
	{"keywords", "keywords", fieldText},
	{"active", "active", fieldBool},
	{"pseudoSales", "pseudo_sales", fieldInt},
	{"topSeller", "top_seller", fieldBool},
	{"notification", "notification", fieldBool},
	{"template", "template", fieldText},
	{"availableFrom", "available_from", fieldText},
	{"availableTo", "available_to", fieldText},
}

var variantFieldDefs = []fieldDef{
	{"additionalText", "additional_text", fieldText},
	{"inStock", "in_stock", fieldInt},
	{"stockMin", "stock_min", fieldInt},
	{"active", "active", fieldBool},
	{"weight", "weight", fieldText},
	{"position", "position", fieldInt},
	{"width", "width", fieldText},
	{"height", "height", fieldText},
	{"length", "length", fieldText},
	{"ean", "ean", fieldText},
	{"purchaseSteps", "purchase_steps", fieldInt},
	{"minPurchase", "min_purchase", fieldInt},
	{"maxPurchase", "max_purchase", fieldInt},
	{"purchaseUnit", "purchase_unit", fieldText},
	{"referenceUnit", "reference_unit", fieldText},
	{"packUnit", "pack_unit", fieldText},
	{"releaseDate", "release_date", fieldText},
	{"shippingTime", "shipping_time", fieldText},
	{"shippingFree", "shipping_free", fieldBool},
	{"supplierNumber", "supplier_number", fieldText},
	{"purchasePrice", "purchase_price", fieldText},
}

// ArticleWriter is the core record writer. It resolves or creates the
// article and variant behind one import row and reports the resolved ids
// that every other sub-writer keys off.
type ArticleWriter struct {
	reg *attributes.Registry
}

// NewArticleWriter creates the core record writer.
func NewArticleWriter(reg *attributes.Registry) *ArticleWriter {
	return &ArticleWriter{reg: reg}
}

// Write upserts the article and variant described by row. Defaults fill
// keys the row does not carry.
func (w *ArticleWriter) Write(ctx context.Context, q database.Querier, row types.Row, defaults types.Row) (WriterResult, error) {
	orderNumber := strings.TrimSpace(row.String("orderNumber"))
	if orderNumber == "" {
		return WriterResult{}, types.Adapterf("article record without an order number can not be imported")
	}
	row = mergeDefaults(row, defaults)

	var articleID, variantID, kind int64
	err := q.QueryRow(ctx,
		`SELECT id, article_id, kind FROM article_variants WHERE order_number = $1`,
		orderNumber,
	).Scan(&variantID, &articleID, &kind)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		articleID, variantID, kind, err = w.create(ctx, q, row, orderNumber)
		if err != nil {
			return WriterResult{}, err
		}
	case err != nil:
		return WriterResult{}, fmt.Errorf("failed to look up variant %s: %w", orderNumber, err)
	default:
		if err := w.update(ctx, q, row, articleID, variantID, kind); err != nil {
			return WriterResult{}, err
		}
	}

	if err := w.writeAttributes(ctx, q, row, articleID, variantID); err != nil {
		return WriterResult{}, err
	}

	mainVariantID, err := w.mainVariantID(ctx, q, articleID)
	if err != nil {
		return WriterResult{}, err
	}
	return WriterResult{ArticleID: articleID, VariantID: variantID, MainVariantID: mainVariantID}, nil
}

func (w *ArticleWriter) create(ctx context.Context, q database.Querier, row types.Row, orderNumber string) (articleID, variantID, kind int64, err error) {
	mainNumber := strings.TrimSpace(row.String("mainNumber"))
	if mainNumber == "" {
		return 0, 0, 0, types.Adapterf("variant %s can not be created without a main number", orderNumber)
	}

	if mainNumber != orderNumber {
		err = q.QueryRow(ctx,
			`SELECT article_id FROM article_variants WHERE order_number = $1 AND kind = $2`,
			mainNumber, types.MainKind,
		).Scan(&articleID)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, 0, types.Adapterf("main variant %s for variant %s was not found", mainNumber, orderNumber)
		}
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to look up main variant %s: %w", mainNumber, err)
		}
		kind = types.MainKind + 1
		variantID, err = w.insertVariant(ctx, q, row, articleID, orderNumber, kind)
		return articleID, variantID, kind, err
	}

	if strings.TrimSpace(row.String("name")) == "" {
		return 0, 0, 0, types.Adapterf("article %s can not be created without a name", orderNumber)
	}
	articleID, err = w.insertArticle(ctx, q, row)
	if err != nil {
		return 0, 0, 0, err
	}
	kind = types.MainKind
	variantID, err = w.insertVariant(ctx, q, row, articleID, orderNumber, kind)
	return articleID, variantID, kind, err
}

func (w *ArticleWriter) update(ctx context.Context, q database.Querier, row types.Row, articleID, variantID, kind int64) error {
	if kind == types.MainKind {
		set := collectFields(row, articleFieldDefs)
		if err := w.resolveLookups(ctx, q, row, set); err != nil {
			return err
		}
		if !set.empty() {
			query, args := set.updateSQL("articles", "id", articleID)
			if _, err := q.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to update article %d: %w", articleID, err)
			}
		}
	}

	set := collectFields(row, variantFieldDefs)
	if unitID, err := w.resolveUnit(ctx, q, row); err != nil {
		return err
	} else if unitID != 0 {
		set.add("unit_id", unitID)
	}
	if set.empty() {
		return nil
	}
	query, args := set.updateSQL("article_variants", "id", variantID)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update variant %d: %w", variantID, err)
	}
	return nil
}

func (w *ArticleWriter) insertArticle(ctx context.Context, q database.Querier, row types.Row) (int64, error) {
	set := collectFields(row, articleFieldDefs)
	if err := w.resolveLookups(ctx, q, row, set); err != nil {
		return 0, err
	}

	var id int64
	query, args := set.insertSQL("articles")
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create article %q: %w", row.String("name"), err)
	}
	return id, nil
}

func (w *ArticleWriter) insertVariant(ctx context.Context, q database.Querier, row types.Row, articleID int64, orderNumber string, kind int64) (int64, error) {
	set := collectFields(row, variantFieldDefs)
	set.add("article_id", articleID)
	set.add("order_number", orderNumber)
	set.add("kind", kind)
	if unitID, err := w.resolveUnit(ctx, q, row); err != nil {
		return 0, err
	} else if unitID != 0 {
		set.add("unit_id", unitID)
	}

	var id int64
	query, args := set.insertSQL("article_variants")
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create variant %s: %w", orderNumber, err)
	}
	return id, nil
}

// resolveLookups resolves supplier and tax references into foreign keys,
// creating missing lookup rows on the fly.
func (w *ArticleWriter) resolveLookups(ctx context.Context, q database.Querier, row types.Row, set *fieldSet) error {
	supplierID, err := w.resolveSupplier(ctx, q, row)
	if err != nil {
		return err
	}
	if supplierID != 0 {
		set.add("supplier_id", supplierID)
	}

	taxID, err := w.resolveTax(ctx, q, row)
	if err != nil {
		return err
	}
	if taxID != 0 {
		set.add("tax_id", taxID)
	}
	return nil
}

func (w *ArticleWriter) resolveSupplier(ctx context.Context, q database.Querier, row types.Row) (int64, error) {
	if id := row.Int64("supplierId"); id != 0 {
		return id, nil
	}
	name := strings.TrimSpace(row.String("supplierName"))
	if name == "" {
		return 0, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO suppliers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve supplier %q: %w", name, err)
	}
	return id, nil
}

func (w *ArticleWriter) resolveTax(ctx context.Context, q database.Querier, row types.Row) (int64, error) {
	if id := row.Int64("taxId"); id != 0 {
		return id, nil
	}
	if !row.Has("tax") || strings.TrimSpace(row.String("tax")) == "" {
		return 0, nil
	}
	rate := row.Float64("tax")
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO taxes (rate, name) VALUES ($1, $2)
		ON CONFLICT (rate) DO UPDATE SET rate = EXCLUDED.rate
		RETURNING id
	`, rate, fmt.Sprintf("%g %%", rate)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve tax rate %g: %w", rate, err)
	}
	return id, nil
}

func (w *ArticleWriter) resolveUnit(ctx context.Context, q database.Querier, row types.Row) (int64, error) {
	if id := row.Int64("unitId"); id != 0 {
		return id, nil
	}
	unit := strings.TrimSpace(row.String("unit"))
	if unit == "" {
		return 0, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO units (unit, name) VALUES ($1, $1)
		ON CONFLICT (unit) DO UPDATE SET unit = EXCLUDED.unit
		RETURNING id
	`, unit).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve unit %q: %w", unit, err)
	}
	return id, nil
}

// writeAttributes merges configured attribute values from the row into the
// variant's attribute storage. Unconfigured attribute keys are ignored.
func (w *ArticleWriter) writeAttributes(ctx context.Context, q database.Querier, row types.Row, articleID, variantID int64) error {
	payload := make(map[string]any)
	for _, col := range w.reg.Columns(attributes.TableArticleAttributes) {
		alias := attributes.ExportAlias(col.Name)
		if row.Has(alias) {
			payload[col.Name] = row[alias]
		}
	}
	if len(payload) == 0 {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode attributes for variant %d: %w", variantID, err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO article_attributes (article_id, variant_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (variant_id) DO UPDATE SET data = article_attributes.data || EXCLUDED.data
	`, articleID, variantID, data)
	if err != nil {
		return fmt.Errorf("failed to write attributes for variant %d: %w", variantID, err)
	}
	return nil
}

func (w *ArticleWriter) mainVariantID(ctx context.Context, q database.Querier, articleID int64) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		`SELECT id FROM article_variants WHERE article_id = $1 AND kind = $2`,
		articleID, types.MainKind,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve main variant of article %d: %w", articleID, err)
	}
	return id, nil
}
