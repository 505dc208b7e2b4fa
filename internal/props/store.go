// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package props provides the property store of a build: a flat, thread-safe
// map from dotted property names (e.g. "project.name", "env.HOME") to string
// values.
//
// # Read-only properties
//
// Properties defined on the command line are marked read-only before the build
// file is bound, so that a <property> element in the file cannot override
// them. Attempting to overwrite a read-only property returns a ReadOnlyError.
//
// # Concurrency Model
//
// The store is guarded by a sync.RWMutex. A build is single-threaded, but the
// same store may be read by several binds at once in tests and tools.
package props

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
)

// EnvPrefix is prepended to environment variable names imported by ImportEnviron.
const EnvPrefix = "env."

// Store is an in-memory property store.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	readonly map[string]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]string),
		readonly: make(map[string]struct{}),
	}
}

// Set defines or overwrites a property.
func (s *Store) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ro := s.readonly[name]; ro {
		return &ReadOnlyError{Name: name}
	}
	s.values[name] = value
	return nil
}

// SetReadOnly defines a property and locks it against later changes.
func (s *Store) SetReadOnly(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ro := s.readonly[name]; ro {
		return &ReadOnlyError{Name: name}
	}
	s.values[name] = value
	s.readonly[name] = struct{}{}
	return nil
}

// Get returns the value of a property.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether a property is defined.
func (s *Store) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// IsReadOnly reports whether a property is locked.
func (s *Store) IsReadOnly(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ro := s.readonly[name]
	return ro
}

// Names returns all property names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all properties.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Checkpoint is a saved state of a Store, restored with Rollback.
type Checkpoint struct {
	values   map[string]string
	readonly map[string]struct{}
}

// Checkpoint saves the current properties and read-only marks.
func (s *Store) Checkpoint() Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Checkpoint{values: maps.Clone(s.values), readonly: maps.Clone(s.readonly)}
}

// Rollback restores the state saved by cp, discarding every definition and
// read-only mark made since.
func (s *Store) Rollback(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = maps.Clone(cp.values)
	s.readonly = maps.Clone(cp.readonly)
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if s.readonly == nil {
		s.readonly = make(map[string]struct{})
	}
}

// ImportEnviron defines an "env.NAME" property for every NAME=value pair of
// environ, as returned by os.Environ. Malformed entries are skipped.
func (s *Store) ImportEnviron(environ []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range environ {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || pair[0] == "" {
			continue
		}
		name := EnvPrefix + pair[0]
		if _, ro := s.readonly[name]; ro {
			continue
		}
		s.values[name] = pair[1]
	}
}

// ReadOnlyError is returned when a read-only property would be overwritten.
type ReadOnlyError struct {
	Name string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("property '%s' is read-only", e.Name)
}
