// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package echo provides the <echo> task.
package echo

import (
	"context"
	"fmt"

	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/project"
	"github.com/specialistvlad/markbuild/internal/typereg"
)

// Module implements the typereg.Module interface for this package.
type Module struct{}

// Register registers the <echo> element.
func (m *Module) Register(r *typereg.Registry) {
	r.Register("echo", &Echo{})
}

// Echo prints a message.
type Echo struct {
	Message string `build:"message"`
}

var _ project.Task = (*Echo)(nil)

func (e *Echo) Execute(ctx context.Context, rt *project.Runtime) error {
	ctxlog.FromContext(ctx).Debug("Printing message.")
	_, err := fmt.Fprintln(rt.Out, e.Message)
	return err
}
