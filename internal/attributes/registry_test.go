package attributes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalCase(t *testing.T) {
	assert.Equal(t, "PurchaseInfo", PascalCase("purchase_info"))
	assert.Equal(t, "Attr1", PascalCase("attr1"))
	assert.Equal(t, "AB", PascalCase("a__b"))
	assert.Equal(t, "", PascalCase(""))
}

func TestExportAlias(t *testing.T) {
	assert.Equal(t, "attributePurchaseInfo", ExportAlias("purchase_info"))
	assert.Equal(t, "attributeAttr1", ExportAlias("attr1"))
}

func TestPayloadKey(t *testing.T) {
	assert.Equal(t, "__attribute_purchase_info", PayloadKey("purchase_info"))
}

func TestRegistrySeedAndFilter(t *testing.T) {
	r := NewRegistry()
	r.Seed(TableArticleAttributes, []Column{
		{Name: "attr1"},
		{Name: "purchase_info", Translatable: true},
	})

	assert.Len(t, r.Columns(TableArticleAttributes), 2)

	translatable := r.Translatable(TableArticleAttributes)
	assert.Len(t, translatable, 1)
	assert.Equal(t, "purchase_info", translatable[0].Name)

	assert.Empty(t, r.Columns("other_table"))
}

func TestRegistryColumnsReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Seed(TableArticleAttributes, []Column{{Name: "attr1"}})

	cols := r.Columns(TableArticleAttributes)
	cols[0].Name = "mutated"

	assert.Equal(t, "attr1", r.Columns(TableArticleAttributes)[0].Name)
}
