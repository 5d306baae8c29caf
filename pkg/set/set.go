package set

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// ------------------------------------------------------
// Generic insertion-ordered Set implementation (thread-unsafe)
// ------------------------------------------------------

// Set represents a generic set of comparable items. Values are returned in
// the order they were first added.
type Set[T comparable] struct {
	items map[T]struct{}
	order *[]T
}

// New creates a new Set
func New[T comparable](elems ...T) Set[T] {
	s := Set[T]{
		items: make(map[T]struct{}),
		order: new([]T),
	}
	s.Append(elems...)
	return s
}

// Append inserts elements into the set
func (s Set[T]) Append(elems ...T) {
	for _, elem := range elems {
		s.Add(elem)
	}
}

// Add inserts elem and reports whether it was not present before
func (s Set[T]) Add(elem T) bool {
	if _, ok := s.items[elem]; ok {
		return false
	}
	s.items[elem] = struct{}{}
	*s.order = append(*s.order, elem)
	return true
}

// Contains checks if an element is in the set
func (s Set[T]) Contains(elem T) bool {
	_, ok := s.items[elem]
	return ok
}

// Len returns the number of elements
func (s Set[T]) Len() int {
	return len(s.items)
}

// Values returns all elements in insertion order
func (s Set[T]) Values() []T {
	if s.order == nil {
		return []T{}
	}
	return slices.Clone(*s.order)
}

// Ordered is a set of ordered elements that supports sorted Values
type Ordered[T constraints.Ordered] struct {
	Set[T]
}

// NewOrdered creates a new Ordered set
func NewOrdered[T constraints.Ordered](elems ...T) Ordered[T] {
	return Ordered[T]{
		Set: New[T](elems...),
	}
}

// Values returns all elements in the set as a sorted slice
func (s Ordered[T]) Values() []T {
	v := s.Set.Values()
	slices.Sort(v)
	return v
}
