package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Section identifies one flat record group within an export or import batch.
type Section string

const (
	SectionArticle       Section = "article"
	SectionPrice         Section = "price"
	SectionImage         Section = "image"
	SectionPropertyValue Section = "propertyValue"
	SectionSimilar       Section = "similar"
	SectionAccessory     Section = "accessory"
	SectionConfigurator  Section = "configurator"
	SectionCategory      Section = "category"
	SectionTranslation   Section = "translation"
)

// Sections returns all record groups in their canonical order.
func Sections() []Section {
	return []Section{
		SectionArticle,
		SectionPrice,
		SectionImage,
		SectionPropertyValue,
		SectionSimilar,
		SectionAccessory,
		SectionConfigurator,
		SectionCategory,
		SectionTranslation,
	}
}

// MainKind is the variant kind value marking an article's main variant.
const MainKind = 1

// PathSeparator joins category names in rendered category paths.
const PathSeparator = "->"

// Row is one flat, denormalized record. Values come either from a database
// projection or from a parsed import file, so accessors normalize across
// string, numeric and nil representations.
type Row map[string]any

// Has reports whether the key exists and is non-nil.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value as a string, or "" when absent.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Int64 returns the value as an int64, or 0 when absent or unparseable.
func (r Row) Int64(key string) int64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float64 returns the value as a float64, or 0 when absent or unparseable.
// Decimal commas are accepted because they are common in catalog exports.
func (r Row) Float64(key string) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool interprets the value as a flag. "1", "true" and non-zero numbers
// are true.
func (r Row) Bool(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s == "1" || s == "true"
	default:
		return false
	}
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
