// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package typereg maps element tag names used in build files (e.g. "copy",
// "replacetokens") to the Go types that implement them.
//
// The registry is populated once during application start-up by modules and
// is read-only afterwards, so concurrent calls to Resolve need no locking.
package typereg

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/agext/levenshtein"
)

// Module is the interface that every pluggable package implements to make its
// element types available to build files.
type Module interface {
	Register(r *Registry)
}

// Entry describes one registered element type.
type Entry struct {
	Name string
	// Type is the struct type; instances are always handled through pointers.
	Type reflect.Type
}

// New allocates a fresh zero instance of the entry's type and returns a
// pointer to it.
func (e Entry) New() any {
	return reflect.New(e.Type).Interface()
}

// Registry holds the tag name to type table.
type Registry struct {
	types map[string]Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]Entry)}
}

// Register associates name with the type of prototype, which must be a pointer
// to a struct. Registering a name twice is a programming error and panics.
func (r *Registry) Register(name string, prototype any) {
	if name == "" {
		panic("typereg: cannot register an empty element name")
	}
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("typereg: prototype for '%s' must be a pointer to a struct, got %T", name, prototype))
	}
	if existing, exists := r.types[name]; exists {
		panic(fmt.Sprintf("typereg: element '%s' already registered as %s", name, existing.Type))
	}
	slog.Debug("Registering element type.", "name", name, "type", t.Elem().String())
	r.types[name] = Entry{Name: name, Type: t.Elem()}
}

// Resolve looks up name. The match is exact and case-sensitive.
func (r *Registry) Resolve(name string) (Entry, error) {
	if e, ok := r.types[name]; ok {
		return e, nil
	}
	return Entry{}, &UnknownTypeError{Name: name, Suggestion: r.suggest(name)}
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// suggest returns the registered name closest to the given one, if it is
// close enough to plausibly be a typo.
func (r *Registry) suggest(given string) string {
	best, bestDist := "", 3
	for _, name := range r.Names() {
		if d := levenshtein.Distance(given, name, nil); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// UnknownTypeError is returned when a tag name has no registered type.
type UnknownTypeError struct {
	Name       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown element type '%s' (did you mean '%s'?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown element type '%s'", e.Name)
}
