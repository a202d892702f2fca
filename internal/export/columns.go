package export

import (
	"fmt"
	"strings"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/types"
)

// Columns is the requested column set per section, as export aliases.
type Columns map[types.Section][]string

// columnSpec maps export aliases to SQL select expressions and keeps the
// alias order stable for default column listings.
type columnSpec struct {
	order []string
	exprs map[string]string
}

func newColumnSpec(pairs ...[2]string) *columnSpec {
	spec := &columnSpec{exprs: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		spec.order = append(spec.order, p[0])
		spec.exprs[p[0]] = p[1]
	}
	return spec
}

func (s *columnSpec) selectList(aliases []string) (string, error) {
	parts := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		expr, ok := s.exprs[alias]
		if !ok {
			return "", &types.InvalidArgumentError{Reason: fmt.Sprintf("unknown export column %q", alias)}
		}
		parts = append(parts, fmt.Sprintf(`%s AS %q`, expr, alias))
	}
	return strings.Join(parts, ", "), nil
}

func articleColumns(reg *attributes.Registry) *columnSpec {
	spec := newColumnSpec(
		[2]string{"articleId", "article.id"},
		[2]string{"name", "article.name"},
		[2]string{"description", "article.description"},
		[2]string{"descriptionLong", "article.description_long"},
		[2]string{"date", "to_char(article.added, 'YYYY-MM-DD')"},
		[2]string{"pseudoSales", "article.pseudo_sales"},
		[2]string{"topSeller", "article.top_seller"},
		[2]string{"metaTitle", "article.meta_title"},
		[2]string{"keywords", "article.keywords"},
		[2]string{"changeTime", "to_char(article.changed, 'YYYY-MM-DD HH24:MI:SS')"},
		[2]string{"notification", "article.notification"},
		[2]string{"template", "article.template"},
		[2]string{"availableFrom", "article.available_from"},
		[2]string{"availableTo", "article.available_to"},
		[2]string{"supplierId", "supplier.id"},
		[2]string{"supplierName", "supplier.name"},
		[2]string{"taxId", "article_tax.id"},
		[2]string{"tax", "article_tax.rate"},
		[2]string{"filterGroupId", "filter_group.id"},
		[2]string{"filterGroupName", "filter_group.name"},
		[2]string{"variantId", "variant.id"},
		[2]string{"orderNumber", "variant.order_number"},
		[2]string{"mainNumber", "mv.order_number"},
		[2]string{"kind", "variant.kind"},
		[2]string{"additionalText", "variant.additional_text"},
		[2]string{"inStock", "variant.in_stock"},
		[2]string{"active", "variant.active"},
		[2]string{"stockMin", "variant.stock_min"},
		[2]string{"weight", "variant.weight"},
		[2]string{"position", "variant.position"},
		[2]string{"width", "variant.width"},
		[2]string{"height", "variant.height"},
		[2]string{"length", "variant.length"},
		[2]string{"ean", "variant.ean"},
		[2]string{"unitId", "variant.unit_id"},
		[2]string{"unit", "variant_unit.unit"},
		[2]string{"purchaseSteps", "variant.purchase_steps"},
		[2]string{"minPurchase", "variant.min_purchase"},
		[2]string{"maxPurchase", "variant.max_purchase"},
		[2]string{"purchaseUnit", "variant.purchase_unit"},
		[2]string{"referenceUnit", "variant.reference_unit"},
		[2]string{"packUnit", "variant.pack_unit"},
		[2]string{"releaseDate", "to_char(variant.release_date, 'YYYY-MM-DD')"},
		[2]string{"shippingTime", "variant.shipping_time"},
		[2]string{"shippingFree", "variant.shipping_free"},
		[2]string{"supplierNumber", "variant.supplier_number"},
		[2]string{"purchasePrice", "variant.purchase_price"},
	)

	for _, col := range reg.Columns(attributes.TableArticleAttributes) {
		alias := attributes.ExportAlias(col.Name)
		spec.order = append(spec.order, alias)
		spec.exprs[alias] = fmt.Sprintf("attribute.data ->> '%s'", col.Name)
	}

	return spec
}

func priceColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"variantId", "prices.variant_id"},
		[2]string{"articleId", "prices.article_id"},
		[2]string{"price", "prices.price"},
		[2]string{"pseudoPrice", "prices.pseudo_price"},
		[2]string{"priceGroup", "prices.customer_group_key"},
		[2]string{"from", "prices.from_qty"},
		[2]string{"to", "prices.to_qty"},
	)
}

func imageColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"id", "images.id"},
		[2]string{"articleId", "images.article_id"},
		[2]string{"path", "images.path"},
		[2]string{"imageUrl", "images.path"},
		[2]string{"main", "images.main"},
		[2]string{"position", "images.position"},
		[2]string{"mediaId", "images.media_id"},
		[2]string{"thumbnail", "'1'"},
	)
}

func propertyValueColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"articleId", "article.id"},
		[2]string{"propertyGroupName", "property_group.name"},
		[2]string{"propertyValueId", "property_value.id"},
		[2]string{"propertyValueName", "property_value.value"},
		[2]string{"propertyValuePosition", "property_value.position"},
		[2]string{"propertyOptionName", "property_option.name"},
	)
}

func configuratorColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"variantId", "variant.id"},
		[2]string{"configOptionId", "config_option.id"},
		[2]string{"configOptionName", "config_option.name"},
		[2]string{"configOptionPosition", "config_option.position"},
		[2]string{"configGroupId", "config_group.id"},
		[2]string{"configGroupName", "config_group.name"},
		[2]string{"configGroupDescription", "config_group.description"},
		[2]string{"configSetId", "config_set.id"},
		[2]string{"configSetName", "config_set.name"},
		[2]string{"configSetType", "config_set.type"},
	)
}

func similarColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"similarId", "similar.id"},
		[2]string{"ordernumber", "similar_variant.order_number"},
		[2]string{"articleId", "article.id"},
	)
}

func accessoryColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"accessoryId", "accessory.id"},
		[2]string{"ordernumber", "accessory_variant.order_number"},
		[2]string{"articleId", "article.id"},
	)
}

func categoryColumns() *columnSpec {
	return newColumnSpec(
		[2]string{"categoryId", "category.id"},
		[2]string{"categoryPath", "category.path"},
		[2]string{"articleId", "article.id"},
	)
}

// translationColumnNames lists the exported translation row fields. The
// translation group is assembled in Go, not by a column-spec query.
func translationColumnNames(reg *attributes.Registry) []string {
	columns := []string{
		"articleId",
		"variantId",
		"languageId",
		"variantKind",
		"name",
		"keywords",
		"metaTitle",
		"description",
		"descriptionLong",
		"additionalText",
		"packUnit",
		"shippingTime",
	}
	for _, col := range reg.Translatable(attributes.TableArticleAttributes) {
		columns = append(columns, attributes.ExportAlias(col.Name))
	}
	return columns
}
