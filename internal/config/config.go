// Package config handles crosscheck configuration loading and validation.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/model"
)

// Config is the root configuration structure.
type Config struct {
	// Workspace is the root directory case namespaces are created under.
	Workspace string `yaml:"workspace" mapstructure:"workspace"`

	// Database is the run ledger path. Empty disables the ledger.
	Database string `yaml:"database" mapstructure:"database"`

	// Catalog is an optional YAML case catalog. Empty uses the built-in
	// catalog for Variant.
	Catalog string `yaml:"catalog" mapstructure:"catalog"`

	// Variant selects the built-in catalog (training, css).
	Variant string `yaml:"variant" mapstructure:"variant"`

	// Parallel is the number of cases in flight.
	Parallel int `yaml:"parallel" mapstructure:"parallel"`

	// Seed seeds input generation; 0 seeds from the wall clock.
	Seed int64 `yaml:"seed" mapstructure:"seed"`

	// KeepArtifacts keeps the workspace of passing cases.
	KeepArtifacts bool `yaml:"keep_artifacts" mapstructure:"keep_artifacts"`

	// FixedInput is the predefined training series.
	FixedInput string `yaml:"fixed_input" mapstructure:"fixed_input"`

	// Tolerance overrides the variant tolerance when positive.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`

	SUT       ExecutorConfig `yaml:"sut" mapstructure:"sut"`
	Reference ExecutorConfig `yaml:"reference" mapstructure:"reference"`

	Skip SkipConfig `yaml:"skip" mapstructure:"skip"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// ExecutorConfig describes how to launch one side of a comparison.
type ExecutorConfig struct {
	// Argv is the program and its fixed leading arguments.
	Argv []string `yaml:"argv" mapstructure:"argv"`

	// Env holds KEY=VALUE entries merged over the current environment.
	// A list keeps keys case-sensitive; viper lowercases map keys.
	Env []string `yaml:"env" mapstructure:"env"`

	Dir string `yaml:"dir" mapstructure:"dir"`

	// Format is the result format (text, mm, scalar). Empty selects the
	// variant default.
	Format string `yaml:"format" mapstructure:"format"`
}

// SkipConfig selects cases that are not run.
type SkipConfig struct {
	// Env names an environment variable that, when set to anything other
	// than "", "0" or "false", skips every case.
	Env string `yaml:"env" mapstructure:"env"`

	// Cases lists case names, or name/dialect pairs.
	Cases []string `yaml:"cases" mapstructure:"cases"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Workspace: filepath.Join(os.TempDir(), "crosscheck"),
		Variant:   string(model.VariantTraining),
		Parallel:  1,
		Skip: SkipConfig{
			Env: "CROSSCHECK_SKIP",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for errors, including that both
// executors are configured.
func (c *Config) Validate() error {
	if err := c.ValidateSettings(); err != nil {
		return err
	}
	for _, side := range []struct {
		name string
		argv []string
	}{{"sut", c.SUT.Argv}, {"reference", c.Reference.Argv}} {
		if len(side.argv) == 0 {
			return fmt.Errorf("%s.argv is required", side.name)
		}
	}
	return nil
}

// ValidateSettings is Validate without the executor requirement, for
// commands that never run a case.
func (c *Config) ValidateSettings() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}

	if _, err := model.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("variant: %w", err)
	}

	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative")
	}

	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("tolerance must be a non-negative number")
	}

	for _, side := range []struct {
		name string
		cfg  ExecutorConfig
	}{{"sut", c.SUT}, {"reference", c.Reference}} {
		for _, kv := range side.cfg.Env {
			if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
				return fmt.Errorf("%s.env: entry %q is not KEY=VALUE", side.name, kv)
			}
		}
		if side.cfg.Format != "" {
			if _, err := matrix.ReaderFor(side.cfg.Format); err != nil {
				return fmt.Errorf("%s.format: %w", side.name, err)
			}
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be one of console, json")
	}

	return nil
}

// EnvMap returns Env as a map. Later entries win.
func (e ExecutorConfig) EnvMap() map[string]string {
	if len(e.Env) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Env))
	for _, kv := range e.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
