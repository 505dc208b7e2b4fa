// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package movefile provides the <move> task.
package movefile

import (
	"context"
	"fmt"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/fileops"
	"github.com/specialistvlad/markbuild/internal/filters"
	"github.com/specialistvlad/markbuild/internal/project"
	"github.com/specialistvlad/markbuild/internal/typereg"
)

// Module implements the typereg.Module interface for this package.
type Module struct{}

// Register registers the <move> element.
func (m *Module) Register(r *typereg.Registry) {
	r.Register("move", &Move{})
}

// Move moves one file. With a non-empty filter chain the move is a filtered
// copy followed by removal of the source, which is not atomic.
type Move struct {
	File      string         `build:"file,required,path"`
	ToFile    string         `build:"tofile,path"`
	ToDir     string         `build:"todir,path"`
	Overwrite bool           `build:"overwrite"`
	Chain     *filters.Chain `build:"filterchain,block"`
}

var _ project.Task = (*Move)(nil)

func (m *Move) Initialize(_ context.Context, _ *binder.Env) error {
	_, err := fileops.Destination(m.File, m.ToFile, m.ToDir)
	return err
}

func (m *Move) Execute(ctx context.Context, rt *project.Runtime) error {
	dst, err := fileops.Destination(m.File, m.ToFile, m.ToDir)
	if err != nil {
		return err
	}
	if !m.Overwrite && fileops.Exists(dst) {
		ctxlog.FromContext(ctx).Info("Destination exists, skipping move.", "src", m.File, "dst", dst)
		return nil
	}
	if err := rt.Copier.Move(ctx, m.File, dst, m.Chain); err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "Moved %s to %s\n", m.File, dst)
	return nil
}
