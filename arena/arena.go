// Package arena provides an append-only store that reports insertion offsets.
package arena

import "fmt"

// Arena is an append-only list of T. Appends report the offset at which the
// first appended item was stored, which makes it a natural fit for building
// flat GPU arrays that other records index into.
type Arena[T any] struct {
	items []T
}

// New creates an arena with room for capacity items.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Append adds items to the arena and returns the offset of the first one.
// Appending nothing returns the current length.
func (a *Arena[T]) Append(items ...T) uint32 {
	offset := uint32(len(a.items))
	a.items = append(a.items, items...)
	return offset
}

// Len returns the number of stored items.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// At returns a pointer to the item at index i.
func (a *Arena[T]) At(i int) *T {
	return &a.items[i]
}

// Items returns the stored items. The slice aliases arena storage and is only
// valid until the next Append or Reset.
func (a *Arena[T]) Items() []T {
	return a.items
}

// Reset drops all items while keeping the allocated storage.
func (a *Arena[T]) Reset() {
	clear(a.items)
	a.items = a.items[:0]
}

// Permute reorders the arena so that item i becomes the item previously
// stored at perm[i]. It panics if perm does not have one entry per item.
func (a *Arena[T]) Permute(perm []uint32) {
	if len(perm) != len(a.items) {
		panic(fmt.Sprintf("arena: permutation length %d does not match item count %d", len(perm), len(a.items)))
	}

	reordered := make([]T, len(a.items))
	for i, src := range perm {
		reordered[i] = a.items[src]
	}
	a.items = reordered
}
