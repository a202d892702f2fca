package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kosarica/catalog-service/internal/types"
)

func TestRenderCategoryPath(t *testing.T) {
	names := map[int64]string{3: "Shoes", 7: "Men"}

	assert.Equal(t, "Shoes->Men->Boots", renderCategoryPath("3|7", "Boots", names))
	assert.Equal(t, "Boots", renderCategoryPath("", "Boots", names))
	assert.Equal(t, "Shoes->Men", renderCategoryPath("3|7", "", names))

	// Unresolvable ancestor ids are dropped, not rendered as blanks.
	assert.Equal(t, "Shoes->Boots", renderCategoryPath("3|99", "Boots", names))
}

func TestCollectPathIDs(t *testing.T) {
	rows := []types.Row{
		{"categoryId": int64(9), "categoryPath": "3|7"},
		{"categoryId": int64(7), "categoryPath": "3"},
	}

	ids := collectPathIDs(rows)
	assert.ElementsMatch(t, []int64{3, 7, 9}, ids)
}
