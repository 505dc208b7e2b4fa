// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/textenc"
)

// Chain is the <filterchain> element.
type Chain struct {
	Encoding       string       `build:"encoding"`
	OutputEncoding string       `build:"outputencoding"`
	Filters        []Descriptor `build:"*,collection"`
}

// Initialize resolves the declared encodings so that a bad name is reported
// when the build file is bound, before any file is opened.
func (c *Chain) Initialize(_ context.Context, _ *binder.Env) error {
	_, _, err := c.Resolve()
	return err
}

// Empty reports whether the chain declares no filters, in which case files are
// transferred as raw bytes. Declared encodings alone do not make a chain
// non-empty; they are still validated by Initialize.
func (c *Chain) Empty() bool {
	return c == nil || len(c.Filters) == 0
}

// Resolve returns the declared input and output encodings. Either is zero
// when not declared.
func (c *Chain) Resolve() (input, output textenc.Encoding, err error) {
	if c == nil {
		return
	}
	if c.Encoding != "" {
		if input, err = textenc.Resolve(c.Encoding); err != nil {
			return textenc.Encoding{}, textenc.Encoding{}, err
		}
	}
	if c.OutputEncoding != "" {
		if output, err = textenc.Resolve(c.OutputEncoding); err != nil {
			return textenc.Encoding{}, textenc.Encoding{}, err
		}
	}
	return input, output, nil
}

// Materialize builds the stages of the chain on top of src and returns the
// terminal stage. Disabled descriptors are skipped without being constructed.
func (c *Chain) Materialize(ctx context.Context, src io.RuneReader, env *binder.Env) (io.RuneReader, error) {
	base, ok := src.(Source)
	if !ok || !base.Physical() {
		return nil, &InvalidBaseFilterError{}
	}

	logger := ctxlog.FromContext(ctx)
	var current io.RuneReader = base
	if c == nil {
		return current, nil
	}
	for i, d := range c.Filters {
		if !d.Enabled() {
			logger.Debug("Skipping disabled filter.", "index", i, "type", fmt.Sprintf("%T", d))
			continue
		}
		stage := d.NewStage(env)
		stage.Chain(current)
		if err := stage.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize filter %T: %w", d, err)
		}
		logger.Debug("Materialized filter.", "index", i, "type", fmt.Sprintf("%T", d))
		current = stage
	}
	return current, nil
}
