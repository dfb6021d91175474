// Package mapping provides a dense, array-backed map keyed by small integer
// identifiers.
//
// Catalog entities (goods, recipes) are numbered 0..n-1 once when the catalog
// is built. A [Mapping] over such a key space gives O(1) Get and Set without
// hashing, and every unset entry reads as the zero value of V.
//
// Keys outside 0..Len()-1 are programming errors and panic with an index out
// of range, the same way a slice would.
package mapping

import "iter"

// Key is the constraint for identifiers usable as [Mapping] keys.
type Key interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// Mapping is a dense map from K to V over the key space 0..Len()-1.
//
// The zero value is an empty mapping with no valid keys. Mapping is not safe
// for concurrent writes.
type Mapping[K Key, V any] struct {
	values []V
}

// New creates a mapping over n keys, all holding the zero value of V.
func New[K Key, V any](n int) Mapping[K, V] {
	return Mapping[K, V]{values: make([]V, n)}
}

// NewFunc creates a mapping over n keys and eagerly populates every entry
// with gen(key).
func NewFunc[K Key, V any](n int, gen func(K) V) Mapping[K, V] {
	m := New[K, V](n)
	for i := range m.values {
		m.values[i] = gen(K(i))
	}
	return m
}

// Len returns the size of the key space.
func (m Mapping[K, V]) Len() int { return len(m.values) }

// Get returns the value stored for k, or the zero value if it was never set.
func (m Mapping[K, V]) Get(k K) V { return m.values[k] }

// Set stores v for k.
func (m Mapping[K, V]) Set(k K, v V) { m.values[k] = v }

// Ptr returns a pointer to the slot for k, for in-place updates of struct values.
func (m Mapping[K, V]) Ptr(k K) *V { return &m.values[k] }

// Fill sets every entry to v.
func (m Mapping[K, V]) Fill(v V) {
	for i := range m.values {
		m.values[i] = v
	}
}

// Clone returns an independent copy of the mapping.
func (m Mapping[K, V]) Clone() Mapping[K, V] {
	values := make([]V, len(m.values))
	copy(values, m.values)
	return Mapping[K, V]{values: values}
}

// All iterates over every key in ascending order together with its value.
func (m Mapping[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, v := range m.values {
			if !yield(K(i), v) {
				return
			}
		}
	}
}
