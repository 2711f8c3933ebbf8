package utils

import (
	"cmp"
	"iter"
)

// SortedMap iterates m in ascending key order, for callers that need a
// deterministic iteration order over a keyed collection.
func SortedMap[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	return OrderMap(m)
}

func MapValues[K comparable, V any](m map[K]V) []V {
	sl := make([]V, 0, len(m))
	for _, v := range m {
		sl = append(sl, v)
	}

	return sl
}

func MapKeys[K comparable, V any](m map[K]V) []K {
	sl := make([]K, 0, len(m))
	for k := range m {
		sl = append(sl, k)
	}

	return sl
}
