package types

import "fmt"

// ParentIndexKey is the wire-format field correlating a sub-row with the
// positional index of its article row.
const ParentIndexKey = "parentIndexElement"

// RecordRef correlates a sub-row with its owning article row within one
// batch. Refs are assigned once when the batch is built and stay stable even
// if groups are filtered or reordered afterwards, unlike a positional index.
type RecordRef int

// BatchRow pairs a flat record with the ref of its owning article row.
type BatchRow struct {
	Ref RecordRef
	Row Row
}

// Batch is one grouped set of import records. The article group drives the
// import; every other group is partitioned by RecordRef.
type Batch struct {
	groups  map[Section][]BatchRow
	nextRef RecordRef
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{groups: make(map[Section][]BatchRow)}
}

// AddArticle appends an article row and returns the ref that sub-rows of
// this record must carry.
func (b *Batch) AddArticle(row Row) RecordRef {
	ref := b.nextRef
	b.nextRef++
	b.groups[SectionArticle] = append(b.groups[SectionArticle], BatchRow{Ref: ref, Row: row})
	return ref
}

// Add appends a sub-row owned by the article record with the given ref.
func (b *Batch) Add(section Section, ref RecordRef, row Row) {
	b.groups[section] = append(b.groups[section], BatchRow{Ref: ref, Row: row})
}

// Articles returns the article rows in insertion order.
func (b *Batch) Articles() []BatchRow {
	return b.groups[SectionArticle]
}

// Rows returns the rows of a group owned by the given article ref, in
// insertion order.
func (b *Batch) Rows(section Section, ref RecordRef) []Row {
	var out []Row
	for _, br := range b.groups[section] {
		if br.Ref == ref {
			out = append(out, br.Row)
		}
	}
	return out
}

// Len returns the number of rows in a group.
func (b *Batch) Len(section Section) int {
	return len(b.groups[section])
}

// BatchFromGrouped converts the flat wire format, where every sub-row carries
// a parentIndexElement pointing into the article group, into a ref-correlated
// batch. Sub-rows with an out-of-range parent index are rejected.
func BatchFromGrouped(groups map[string][]Row) (*Batch, error) {
	b := NewBatch()

	refs := make([]RecordRef, 0, len(groups[string(SectionArticle)]))
	for _, article := range groups[string(SectionArticle)] {
		refs = append(refs, b.AddArticle(article))
	}

	for _, section := range Sections() {
		if section == SectionArticle {
			continue
		}
		for _, row := range groups[string(section)] {
			idx := int(row.Int64(ParentIndexKey))
			if idx < 0 || idx >= len(refs) {
				return nil, &ValidationError{Reason: fmt.Sprintf(
					"%s row references article index %d, batch has %d article records", section, idx, len(refs))}
			}
			b.Add(section, refs[idx], row)
		}
	}

	return b, nil
}
