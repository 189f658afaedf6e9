package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// SortConfig selects the ordering and optional filter of a list view. An
// empty SortBy sorts by "name"; the filter applies only when both FilterBy
// and FilterValue are set.
type SortConfig struct {
	SortBy      string `validate:"omitempty,alphanum"`
	Direction   string `validate:"omitempty,oneof=asc desc"`
	FilterBy    string `validate:"omitempty,alphanum"`
	FilterValue string
}

// Sorted filters items whose field contains FilterValue (case-insensitive)
// and stable-sorts the rest by SortBy. field reads a named field of an item,
// typically a method expression such as core.Loan.Field. The input slice is
// not modified.
func Sorted[T any](items []T, cfg SortConfig, field func(T, string) any) []T {
	sortBy := cfg.SortBy
	if sortBy == "" {
		sortBy = "name"
	}

	out := make([]T, 0, len(items))
	needle := strings.ToLower(cfg.FilterValue)
	for _, it := range items {
		if cfg.FilterBy != "" && cfg.FilterValue != "" {
			if !strings.Contains(strings.ToLower(stringify(field(it, cfg.FilterBy))), needle) {
				continue
			}
		}
		out = append(out, it)
	}

	slices.SortStableFunc(out, func(a, b T) int {
		c := compareValues(field(a, sortBy), field(b, sortBy))
		if cfg.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// compareValues orders numbers, strings and times. Values of different or
// unknown kinds compare equal so their relative order is kept.
func compareValues(a, b any) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmp.Compare(fa, fb)
		}
		return 0
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok && x != y {
			if x {
				return 1
			}
			return -1
		}
	}
	return 0
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
