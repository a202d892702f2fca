package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/types"
)

func TestCollectFieldsSkipsAbsentAndBlankValues(t *testing.T) {
	defs := []fieldDef{
		{"name", "name", fieldText},
		{"inStock", "in_stock", fieldInt},
		{"active", "active", fieldBool},
		{"weight", "weight", fieldFloat},
	}
	row := types.Row{
		"name":    "Winter Boot",
		"inStock": "25",
		"active":  "  ",
		"weight":  "1,75",
	}

	set := collectFields(row, defs)
	require.Equal(t, []string{"name", "in_stock", "weight"}, set.columns)
	assert.Equal(t, []any{"Winter Boot", int64(25), 1.75}, set.values)
}

func TestFieldSetSQL(t *testing.T) {
	set := &fieldSet{}
	set.add("name", "Boot")
	set.add("in_stock", int64(5))

	insert, args := set.insertSQL("articles")
	assert.Equal(t, "INSERT INTO articles (name, in_stock) VALUES ($1, $2) RETURNING id", insert)
	assert.Equal(t, []any{"Boot", int64(5)}, args)

	update, args := set.updateSQL("articles", "id", int64(7))
	assert.Equal(t, "UPDATE articles SET name = $1, in_stock = $2 WHERE id = $3", update)
	assert.Equal(t, []any{"Boot", int64(5), int64(7)}, args)
}

func TestMergeDefaultsFillsOnlyUnsetKeys(t *testing.T) {
	row := types.Row{"orderNumber": "SW-1", "taxId": "2"}
	defaults := types.Row{"taxId": "1", "active": "1"}

	merged := mergeDefaults(row, defaults)
	assert.Equal(t, "2", merged.String("taxId"))
	assert.Equal(t, "1", merged.String("active"))

	// The input row is untouched.
	assert.False(t, row.Has("active"))
}

func TestMergeDefaultsWithoutDefaultsReturnsRow(t *testing.T) {
	row := types.Row{"orderNumber": "SW-1"}
	assert.Equal(t, row, mergeDefaults(row, nil))
}

func TestMediaPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://shop.example.com/media/image/boot.jpg", "media/image/boot.jpg"},
		{"http://shop.example.com/media/a.png", "media/a.png"},
		{"/media/image/boot.jpg", "media/image/boot.jpg"},
		{"media/image/boot.jpg", "media/image/boot.jpg"},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mediaPath(tt.in), "input %q", tt.in)
	}
}
