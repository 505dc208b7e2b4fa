package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/markbuild/internal/app"
	"github.com/specialistvlad/markbuild/internal/fsutil"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type flags struct {
	file       string
	defines    []string
	logLevel   string
	logFormat  string
	configFile string
	metrics    string
	list       bool
}

func newCommand(f *flags, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markbuild [flags] [target]",
		Short: "markbuild runs targets of declarative XML or HCL build files.",
		Long: `markbuild - A declarative build tool.

Runs one target of a build file. Without --file, the single *.build.xml or
*.build.hcl file in the current directory is used. Without a target, the
project's default target runs.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.file, "file", "f", "", "Path to the build file.")
	fs.StringArrayVarP(&f.defines, "define", "D", nil, "Define a read-only property as name=value. Repeatable.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.configFile, "config", "", "Path to a YAML config file (default "+app.DefaultConfigFile+" if present).")
	fs.StringVar(&f.metrics, "metrics-file", "", "Write transfer metrics in Prometheus text format to this file.")
	fs.BoolVarP(&f.list, "list", "l", false, "List the targets of the build file and exit.")
	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		f      flags
		config *app.Config
	)
	cmd := newCommand(&f, func(cmd *cobra.Command, args []string) error {
		cfg, err := resolve(cmd, &f, args)
		if err != nil {
			return err
		}
		config = cfg
		return nil
	})
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		// --help was handled by cobra.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func resolve(cmd *cobra.Command, f *flags, args []string) (*app.Config, error) {
	fileCfg, err := loadConfigFile(f.configFile)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	cfg := app.Config{
		BuildFile:   fileCfg.BuildFile,
		LogLevel:    fileCfg.LogLevel,
		LogFormat:   fileCfg.LogFormat,
		MetricsFile: fileCfg.MetricsFile,
		Properties:  map[string]string{},
		ListTargets: f.list,
	}
	for k, v := range fileCfg.Properties {
		cfg.Properties[k] = v
	}

	changed := cmd.Flags().Changed
	if changed("file") || cfg.BuildFile == "" {
		cfg.BuildFile = f.file
	}
	if changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = strings.ToLower(f.logLevel)
	}
	if changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = strings.ToLower(f.logFormat)
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metrics
	}
	for _, d := range f.defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("invalid property definition '%s': expected name=value", d)}
		}
		cfg.Properties[strings.TrimSpace(name)] = value
	}
	if len(args) > 0 {
		cfg.Target = args[0]
	}

	if cfg.BuildFile == "" {
		path, err := fsutil.FindBuildFile(".")
		if err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.BuildFile = path
	}
	slog.Debug("Build file determined.", "path", cfg.BuildFile)

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, nil
}

// loadConfigFile reads the explicit config file, or the default one when it
// exists.
func loadConfigFile(path string) (*app.FileConfig, error) {
	if path == "" {
		if _, err := os.Stat(app.DefaultConfigFile); err != nil {
			return &app.FileConfig{}, nil
		}
		path = app.DefaultConfigFile
	}
	return app.LoadConfigFile(path)
}
