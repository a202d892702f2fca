package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchPartitionsByRef(t *testing.T) {
	b := NewBatch()
	first := b.AddArticle(Row{"orderNumber": "SW-1"})
	second := b.AddArticle(Row{"orderNumber": "SW-2"})

	b.Add(SectionPrice, first, Row{"price": "9.99"})
	b.Add(SectionPrice, second, Row{"price": "19.99"})
	b.Add(SectionPrice, first, Row{"price": "8.99"})

	require.Len(t, b.Articles(), 2)
	assert.Len(t, b.Rows(SectionPrice, first), 2)
	assert.Len(t, b.Rows(SectionPrice, second), 1)
	assert.Empty(t, b.Rows(SectionImage, first))
	assert.Equal(t, 3, b.Len(SectionPrice))
}

func TestBatchFromGrouped(t *testing.T) {
	groups := map[string][]Row{
		"article": {
			{"orderNumber": "SW-1"},
			{"orderNumber": "SW-2"},
		},
		"price": {
			{"price": "9.99", ParentIndexKey: "0"},
			{"price": "19.99", ParentIndexKey: "1"},
		},
		"image": {
			{"path": "media/a.jpg", ParentIndexKey: "1"},
		},
	}

	b, err := BatchFromGrouped(groups)
	require.NoError(t, err)

	articles := b.Articles()
	require.Len(t, articles, 2)
	assert.Len(t, b.Rows(SectionPrice, articles[0].Ref), 1)
	assert.Len(t, b.Rows(SectionPrice, articles[1].Ref), 1)
	assert.Empty(t, b.Rows(SectionImage, articles[0].Ref))
	assert.Len(t, b.Rows(SectionImage, articles[1].Ref), 1)
}

func TestBatchFromGroupedRejectsOutOfRangeParent(t *testing.T) {
	groups := map[string][]Row{
		"article": {{"orderNumber": "SW-1"}},
		"price":   {{"price": "9.99", ParentIndexKey: "3"}},
	}

	_, err := BatchFromGrouped(groups)
	require.Error(t, err)

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}
