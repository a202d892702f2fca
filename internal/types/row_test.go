package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowString(t *testing.T) {
	row := Row{
		"name":  "Boot",
		"raw":   []byte("bytes"),
		"when":  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		"count": int64(5),
		"empty": nil,
	}

	assert.Equal(t, "Boot", row.String("name"))
	assert.Equal(t, "bytes", row.String("raw"))
	assert.Equal(t, "2026-03-14 09:30:00", row.String("when"))
	assert.Equal(t, "5", row.String("count"))
	assert.Equal(t, "", row.String("empty"))
	assert.Equal(t, "", row.String("missing"))
}

func TestRowInt64(t *testing.T) {
	row := Row{
		"int":     int64(42),
		"string":  " 17 ",
		"float":   3.9,
		"garbage": "not a number",
	}

	assert.Equal(t, int64(42), row.Int64("int"))
	assert.Equal(t, int64(17), row.Int64("string"))
	assert.Equal(t, int64(3), row.Int64("float"))
	assert.Equal(t, int64(0), row.Int64("garbage"))
	assert.Equal(t, int64(0), row.Int64("missing"))
}

func TestRowFloat64AcceptsDecimalComma(t *testing.T) {
	row := Row{
		"comma": "12,50",
		"dot":   "12.50",
		"int":   int64(3),
	}

	assert.Equal(t, 12.5, row.Float64("comma"))
	assert.Equal(t, 12.5, row.Float64("dot"))
	assert.Equal(t, 3.0, row.Float64("int"))
	assert.Equal(t, 0.0, row.Float64("missing"))
}

func TestRowBool(t *testing.T) {
	row := Row{
		"one":   "1",
		"true":  "TRUE",
		"zero":  "0",
		"num":   int64(2),
		"other": "yes",
	}

	assert.True(t, row.Bool("one"))
	assert.True(t, row.Bool("true"))
	assert.True(t, row.Bool("num"))
	assert.False(t, row.Bool("zero"))
	assert.False(t, row.Bool("other"))
	assert.False(t, row.Bool("missing"))
}

func TestRowClone(t *testing.T) {
	row := Row{"name": "Boot"}
	clone := row.Clone()
	clone["name"] = "Sandal"

	assert.Equal(t, "Boot", row.String("name"))
	assert.Equal(t, "Sandal", clone.String("name"))
}
