package app

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no config file is
// given explicitly.
const DefaultConfigFile = ".markbuild.yaml"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BuildFile string
	// Target to run; empty selects the project default.
	Target      string
	ListTargets bool

	LogFormat string
	LogLevel  string
	// Properties are defined read-only before the build file is bound.
	Properties map[string]string
	// MetricsFile receives the transfer counters in Prometheus text format
	// after the run. Empty disables it.
	MetricsFile string
	// Environ seeds the env.* properties; nil means the process environment.
	Environ []string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.BuildFile == "" {
		return nil, errors.New("BuildFile is a required configuration field and cannot be empty")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	return &cfg, nil
}

// FileConfig is the content of a YAML config file.
type FileConfig struct {
	BuildFile   string            `mapstructure:"build_file"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	MetricsFile string            `mapstructure:"metrics_file"`
	Properties  map[string]string `mapstructure:"properties"`
}

// LoadConfigFile reads a YAML config file. Scalar property values of any type
// are taken as their textual form.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	var fc FileConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarToString,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &fc,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return &fc, nil
}

// scalarToString keeps YAML booleans and numbers readable ("true", "1.5")
// where a string is expected.
func scalarToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int64, reflect.Uint64, reflect.Float64:
		return fmt.Sprint(data), nil
	}
	return data, nil
}
