package fileio

import (
	"github.com/kosarica/catalog-service/internal/types"
)

// AssignParentIndexes stamps every sub-entity row with the positional index
// of its owning article row, matching on variantId first and articleId as
// fallback. Export projections correlate by entity ids; the file format
// correlates by article position, so this runs before writing.
//
// Sub-rows that match no article row are dropped. Rows are cloned, the
// input is left untouched.
func AssignParentIndexes(sections map[types.Section][]types.Row) map[types.Section][]types.Row {
	byVariant := make(map[int64]int)
	byArticle := make(map[int64]int)
	for i, article := range sections[types.SectionArticle] {
		if id := article.Int64("variantId"); id != 0 {
			byVariant[id] = i
		}
		if id := article.Int64("articleId"); id != 0 {
			if _, ok := byArticle[id]; !ok {
				byArticle[id] = i
			}
		}
	}

	out := make(map[types.Section][]types.Row, len(sections))
	out[types.SectionArticle] = sections[types.SectionArticle]

	for _, section := range types.Sections() {
		if section == types.SectionArticle {
			continue
		}
		for _, row := range sections[section] {
			idx, ok := parentIndex(row, byVariant, byArticle)
			if !ok {
				continue
			}
			clone := row.Clone()
			clone[types.ParentIndexKey] = idx
			out[section] = append(out[section], clone)
		}
	}
	return out
}

func parentIndex(row types.Row, byVariant, byArticle map[int64]int) (int, bool) {
	if id := row.Int64("variantId"); id != 0 {
		if idx, ok := byVariant[id]; ok {
			return idx, true
		}
	}
	if id := row.Int64("articleId"); id != 0 {
		if idx, ok := byArticle[id]; ok {
			return idx, true
		}
	}
	return 0, false
}
