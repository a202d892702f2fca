package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/types"
)

func TestBuildWhereClauses(t *testing.T) {
	where, args, err := buildWhere([]Condition{
		{Field: "name", Op: "contains", Value: "Boot"},
		{Field: "active", Value: true},
		{Field: "supplier_id", Op: "in", Value: []any{int64(1), int64(2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "article.name ILIKE $1 AND article.active = $2 AND article.supplier_id = ANY($3)", where)
	require.Len(t, args, 3)
	assert.Equal(t, "%Boot%", args[0])
	assert.Equal(t, true, args[1])
}

func TestBuildWhereComparisonOperators(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{"eq", "variant.in_stock = $1"},
		{"neq", "variant.in_stock <> $1"},
		{"lt", "variant.in_stock < $1"},
		{"lte", "variant.in_stock <= $1"},
		{"gt", "variant.in_stock > $1"},
		{"gte", "variant.in_stock >= $1"},
	}
	for _, tt := range tests {
		where, args, err := buildWhere([]Condition{{Field: "in_stock", Op: tt.op, Value: int64(5)}})
		require.NoError(t, err, tt.op)
		assert.Equal(t, tt.want, where)
		assert.Len(t, args, 1)
	}
}

func TestBuildWhereRejectsMalformedConditions(t *testing.T) {
	tests := []struct {
		name       string
		conditions []Condition
	}{
		{"unknown field", []Condition{{Field: "password", Value: "x"}}},
		{"unknown operator", []Condition{{Field: "name", Op: "regex", Value: "x"}}},
		{"empty in list", []Condition{{Field: "supplier_id", Op: "in", Value: []any{}}}},
		{"in without list", []Condition{{Field: "supplier_id", Op: "in", Value: "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildWhere(tt.conditions)
			require.Error(t, err)
			assert.True(t, types.IsInvalidArgument(err))
		})
	}
}
