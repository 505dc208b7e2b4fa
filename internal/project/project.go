// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package project defines the root element of a build file: the project, its
// properties, and its targets.
package project

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agext/levenshtein"
	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/fileops"
	"github.com/specialistvlad/markbuild/internal/namedcoll"
	"github.com/specialistvlad/markbuild/internal/props"
)

// Task is implemented by every element that can appear inside a target.
type Task interface {
	Execute(ctx context.Context, rt *Runtime) error
}

// Runtime is what tasks receive when they execute.
type Runtime struct {
	Out        io.Writer
	Copier     *fileops.Copier
	Properties *props.Store
}

// Targets holds the targets of a project by name.
type Targets = namedcoll.Collection[*Target]

func init() {
	binder.RegisterAppender(func(c *Targets, t *Target) error {
		return c.Add(t)
	})
}

// Project is the <project> root element.
type Project struct {
	Name       string      `build:"name"`
	Default    string      `build:"default"`
	BaseDir    string      `build:"basedir"`
	Properties []*Property `build:"property,collection"`
	Targets    Targets     `build:"target,collection"`
}

// Target is a named, ordered list of tasks.
type Target struct {
	Name        string `build:"name,required"`
	Description string `build:"description"`
	Tasks       []Task `build:"*,collection"`
}

func (t *Target) ItemName() string {
	return t.Name
}

// Execute runs the tasks of t in document order and stops at the first
// failure.
func (t *Target) Execute(ctx context.Context, rt *Runtime) error {
	ctx = ctxlog.With(ctx, "target", t.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running target.", "tasks", len(t.Tasks))
	for i, task := range t.Tasks {
		logger.Debug("Executing task.", "index", i, "type", fmt.Sprintf("%T", task))
		if err := task.Execute(ctx, rt); err != nil {
			return fmt.Errorf("target '%s': %w", t.Name, err)
		}
	}
	return nil
}

// Run executes the named target, or the default target when name is empty.
func (p *Project) Run(ctx context.Context, rt *Runtime, name string) error {
	if name == "" {
		name = p.Default
	}
	if name == "" {
		return ErrNoTarget
	}
	t, ok := p.Targets.Find(name)
	if !ok {
		return &UnknownTargetError{Name: name, Suggestion: p.suggest(name)}
	}
	return t.Execute(ctx, rt)
}

func (p *Project) suggest(given string) string {
	best, bestDist := "", 3
	for _, name := range p.Targets.Names() {
		if d := levenshtein.Distance(given, name, nil); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// ErrNoTarget is returned by Run when neither a target nor a project default
// is given.
var ErrNoTarget = errors.New("no target given and the project declares no default")

// UnknownTargetError is returned by Run for a name the project does not define.
type UnknownTargetError struct {
	Name       string
	Suggestion string
}

func (e *UnknownTargetError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("target '%s' does not exist in the project (did you mean '%s'?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("target '%s' does not exist in the project", e.Name)
}
