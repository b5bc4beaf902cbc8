// Package collection holds the in-memory side of every panel: the record
// contract shared by all transit domains, the search filter and the
// paginator.
package collection

import "strings"

// Record is one row of a fetched collection. Field reports the value of a
// named column; ok is false when the record has no such column.
type Record interface {
	Field(name string) (Value, bool)
}

// Filter keeps the records whose string value in any of fields contains
// query, ignoring case. A blank query returns items unchanged. The input
// slice is never modified and relative order is preserved.
func Filter[T Record](items []T, fields []string, query string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	needle := strings.ToLower(query)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(item, fields, needle) {
			out = append(out, item)
		}
	}
	return out
}

func matches(record Record, fields []string, needle string) bool {
	for _, name := range fields {
		value, ok := record.Field(name)
		if !ok || !value.IsString() {
			continue
		}
		if strings.Contains(strings.ToLower(value.Text()), needle) {
			return true
		}
	}
	return false
}
