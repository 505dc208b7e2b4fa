// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package namedcoll provides an insertion-ordered collection of uniquely
// named items.
package namedcoll

import (
	"fmt"
	"iter"
)

// Named is implemented by items stored in a Collection.
type Named interface {
	ItemName() string
}

// Collection holds items with unique names in insertion order. Collections
// are small, so lookups scan linearly.
type Collection[T Named] struct {
	items []T
}

// Add appends item. If an item with the same name exists, Add returns a
// *DuplicateNameError and leaves the collection unchanged.
func (c *Collection[T]) Add(item T) error {
	name := item.ItemName()
	if _, ok := c.Find(name); ok {
		return &DuplicateNameError{Name: name}
	}
	c.items = append(c.items, item)
	return nil
}

// Find returns the item called name.
func (c *Collection[T]) Find(name string) (T, bool) {
	for _, it := range c.items {
		if it.ItemName() == name {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// All iterates over the items in insertion order.
func (c *Collection[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, it := range c.items {
			if !yield(it) {
				return
			}
		}
	}
}

// Items returns a copy of the items in insertion order.
func (c *Collection[T]) Items() []T {
	return append([]T(nil), c.items...)
}

// Names returns the item names in insertion order.
func (c *Collection[T]) Names() []string {
	names := make([]string, len(c.items))
	for i, it := range c.items {
		names[i] = it.ItemName()
	}
	return names
}

func (c *Collection[T]) Len() int {
	return len(c.items)
}

// DuplicateNameError is returned when adding an item whose name is taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("an item named '%s' already exists", e.Name)
}
