package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/markup"
	"github.com/specialistvlad/markbuild/internal/project"
)

const rootElement = "project"

// Load parses and binds the configured build file. Properties defined while
// loading are discarded again when loading fails.
func (a *App) Load(ctx context.Context) (err error) {
	cp := a.store.Checkpoint()
	defer func() {
		if err != nil {
			a.store.Rollback(cp)
		}
	}()

	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading build file...", "path", a.config.BuildFile)

	path, err := filepath.Abs(a.config.BuildFile)
	if err != nil {
		return err
	}
	root, err := markup.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load build file: %w", err)
	}
	// The root may live in any namespace; the binder treats it as the home
	// namespace of the whole document.
	if root.Name != rootElement {
		return fmt.Errorf("%s: root element must be <%s>, found <%s>", root.Location, rootElement, root.Name)
	}

	// The base directory and project name are known before anything is
	// bound so that every attribute can refer to them.
	baseDir := filepath.Dir(path)
	if raw, ok := root.Attr("basedir"); ok {
		dir, err := a.env.Expand(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid basedir: %w", root.Location, err)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		baseDir = filepath.Clean(dir)
	}
	a.env.BaseDir = baseDir
	a.defineBuiltin("project.basedir", baseDir)
	if raw, ok := root.Attr("name"); ok {
		if name, err := a.env.Expand(raw); err == nil {
			a.defineBuiltin("project.name", name)
		}
	}

	var p project.Project
	if err := a.binder.Bind(ctx, root, &p); err != nil {
		return fmt.Errorf("failed to bind build file: %w", err)
	}
	p.BaseDir = baseDir
	a.project = &p

	logger.Info("Build file loaded.", "project", p.Name, "targets", p.Targets.Len(), "basedir", baseDir)
	return nil
}

func (a *App) defineBuiltin(name, value string) {
	if a.store.IsReadOnly(name) {
		return
	}
	_ = a.store.SetReadOnly(name, value)
}
