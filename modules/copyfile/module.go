// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package copyfile provides the <copy> task.
package copyfile

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

// Register registers the <copy> element.
func (m *Module) Register(r *typereg.Registry) {
	r.Register("copy", &Copy{})
}

// Copy copies one file, optionally through a filter chain.
type Copy struct {
	File      string         `build:"file,required,path"`
	ToFile    string         `build:"tofile,path"`
	ToDir     string         `build:"todir,path"`
	Overwrite bool           `build:"overwrite"`
	Chain     *filters.Chain `build:"filterchain,block"`
}

var _ project.Task = (*Copy)(nil)

func (c *Copy) Initialize(_ context.Context, _ *binder.Env) error {
	_, err := fileops.Destination(c.File, c.ToFile, c.ToDir)
	return err
}

// Execute copies the file unless the destination exists and Overwrite is off.
func (c *Copy) Execute(ctx context.Context, rt *project.Runtime) error {
	dst, err := fileops.Destination(c.File, c.ToFile, c.ToDir)
	if err != nil {
		return err
	}
	if !c.Overwrite && fileops.Exists(dst) {
		ctxlog.FromContext(ctx).Info("Destination exists, skipping copy.", "src", c.File, "dst", dst)
		return nil
	}
	if err := rt.Copier.Copy(ctx, c.File, dst, c.Chain); err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "Copied %s to %s\n", c.File, dst)
	return nil
}
