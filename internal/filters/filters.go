// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package filters implements filter chains: ordered, pull-based pipelines of
// text transformations applied to file content during copy and move.
//
// Each stage is an io.RuneReader that pulls from its predecessor. The first
// stage always reads from a physical Source, which reports the encoding the
// content was opened with.
package filters

import (
	"io"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/textenc"
	"github.com/specialistvlad/markbuild/internal/typereg"
)

// Source is the base of a chain.
type Source interface {
	io.RuneReader
	// Physical reports whether the reader is backed directly by a byte
	// source rather than by another filter.
	Physical() bool
	// Encoding returns the encoding actually used to open the source.
	Encoding() textenc.Encoding
}

// Stage is one materialized filter.
type Stage interface {
	io.RuneReader
	// Chain attaches the predecessor the stage reads from.
	Chain(prev io.RuneReader)
	// Initialize is called once after Chain and before the first read.
	Initialize() error
}

// Descriptor is the bound, declarative form of a filter. Descriptors are
// created when a build file is bound and turned into stages for every
// transfer.
type Descriptor interface {
	Enabled() bool
	NewStage(env *binder.Env) Stage
}

// Module registers the built-in filters.
type Module struct{}

// Register adds the built-in filter element types to r.
func (m *Module) Register(r *typereg.Registry) {
	r.Register("replacetokens", &ReplaceTokens{})
	r.Register("replacestring", &ReplaceString{})
	r.Register("expandproperties", &ExpandProperties{})
	r.Register("tabstospaces", &TabsToSpaces{})
}

// InvalidBaseFilterError is returned when a chain is materialized on top of a
// reader that is not a physical Source.
type InvalidBaseFilterError struct{}

func (e *InvalidBaseFilterError) Error() string {
	return "filter chain requires a physical base reader"
}
