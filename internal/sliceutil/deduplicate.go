// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

import "slices"

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	courses := []catalog.Course{{ID: "goethe-a1"}, {ID: "testdaf"}, {ID: "goethe-a1"}}
//	unique := sliceutil.Deduplicate(courses, func(c catalog.Course) string { return c.ID })
//	// Result: [{ID: "goethe-a1"}, {ID: "testdaf"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}

	return result
}

// Toggle returns a new slice with item removed if present, otherwise appended.
// Order of the remaining items is preserved.
func Toggle[T comparable](items []T, item T) []T {
	if i := slices.Index(items, item); i >= 0 {
		return slices.Delete(slices.Clone(items), i, i+1)
	}
	return append(slices.Clone(items), item)
}
