// Package collections holds small generic slice helpers.
package collections

// Apply maps every item through fn.
func Apply[T, V any](items []T, fn func(T) V) []V {
	result := make([]V, len(items))
	for i, item := range items {
		result[i] = fn(item)
	}

	return result
}

// Filter returns the items for which keep reports true, in order.
func Filter[T any](items []T, keep func(T) bool) []T {
	var result []T
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}

	return result
}

// AppendUnique appends each item not already present in dst.
func AppendUnique[T comparable](dst []T, items ...T) []T {
	seen := make(map[T]struct{}, len(dst)+len(items))
	for _, item := range dst {
		seen[item] = struct{}{}
	}

	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}

	return dst
}
