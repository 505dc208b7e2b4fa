package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/fileops"
	"github.com/specialistvlad/markbuild/internal/project"
)

// Run loads the build file if necessary and executes the configured target.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.project == nil {
		if err := a.Load(ctx); err != nil {
			return err
		}
	}

	if a.config.ListTargets {
		return a.listTargets(a.outW)
	}

	rt := &project.Runtime{
		Out:        a.outW,
		Copier:     fileops.NewCopier(a.env, a.metrics),
		Properties: a.store,
	}
	runErr := a.project.Run(ctx, rt, a.config.Target)
	if runErr != nil {
		runErr = fmt.Errorf("build failed: %w", runErr)
	} else {
		a.logger.Info("🏁 Build finished.")
	}

	if a.config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.config.MetricsFile, a.gatherer); err != nil {
			a.logger.Error("Failed to write metrics.", "path", a.config.MetricsFile, "error", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return runErr
}

func (a *App) listTargets(w io.Writer) error {
	p := a.project
	fmt.Fprintf(w, "Project %s\n", p.Name)
	for t := range p.Targets.All() {
		marker := " "
		if t.Name == p.Default {
			marker = "*"
		}
		if t.Description != "" {
			fmt.Fprintf(w, " %s %-20s %s\n", marker, t.Name, t.Description)
		} else {
			fmt.Fprintf(w, " %s %s\n", marker, t.Name)
		}
	}
	return nil
}
