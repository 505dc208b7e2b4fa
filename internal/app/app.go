package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/expand"
	"github.com/specialistvlad/markbuild/internal/fileops"
	"github.com/specialistvlad/markbuild/internal/project"
	"github.com/specialistvlad/markbuild/internal/props"
	"github.com/specialistvlad/markbuild/internal/typereg"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *typereg.Registry
	store    *props.Store
	env      *binder.Env
	binder   *binder.Binder
	gatherer *prometheus.Registry
	metrics  *fileops.Metrics
	project  *project.Project
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// property store. An element type with an invalid schema is a programmer
// error and panics.
func NewApp(outW io.Writer, cfg *Config, modules ...typereg.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := typereg.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "elements", reg.Names())

	store := props.New()
	environ := cfg.Environ
	if environ == nil {
		environ = os.Environ()
	}
	store.ImportEnviron(environ)
	for _, name := range sortedKeys(cfg.Properties) {
		// Only fails for names that are already read-only.
		if err := store.SetReadOnly(name, cfg.Properties[name]); err != nil {
			ctxlog.FromContext(ctx).Warn("Ignoring property definition.", "name", name, "error", err)
		}
	}
	logger.Debug("Properties initialized.", "count", len(store.Names()))

	env := &binder.Env{Expander: expand.New(store)}
	b := binder.New(reg, env)
	if err := b.Check(); err != nil {
		panic(err)
	}
	logger.Debug("Element schemas validated.")

	gatherer := prometheus.NewRegistry()
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		store:    store,
		env:      env,
		binder:   b,
		gatherer: gatherer,
		metrics:  fileops.NewMetrics(gatherer),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *typereg.Registry {
	return a.registry
}

// Properties returns the application's property store.
func (a *App) Properties() *props.Store {
	return a.store
}

// Project returns the bound project, or nil before Load.
func (a *App) Project() *project.Project {
	return a.project
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
