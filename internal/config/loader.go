package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CROSSCHECK_PARALLEL.
const EnvPrefix = "CROSSCHECK"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	return l.load((*Config).Validate)
}

// LoadSettings is like Load but accepts a configuration without executors.
func (l *Loader) LoadSettings() (*Config, error) {
	return l.load((*Config).ValidateSettings)
}

func (l *Loader) load(validate func(*Config) error) (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("crosscheck")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "crosscheck"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "crosscheck"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	// Unmarshal only sees nested env vars that are bound explicitly.
	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	v.SetDefault("workspace", cfg.Workspace)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("catalog", cfg.Catalog)
	v.SetDefault("variant", cfg.Variant)
	v.SetDefault("parallel", cfg.Parallel)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("keep_artifacts", cfg.KeepArtifacts)
	v.SetDefault("fixed_input", cfg.FixedInput)
	v.SetDefault("tolerance", cfg.Tolerance)

	v.SetDefault("skip.env", cfg.Skip.Env)
	v.SetDefault("skip.cases", cfg.Skip.Cases)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// loadConfigFile reads the explicit file, or the first crosscheck.yaml on
// the search path. Only an explicit file is required to exist.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && l.configFile == "" {
			return nil
		}
		return err
	}

	return nil
}

// bindEnvVars binds CROSSCHECK_* environment variables for config keys.
// List values are comma separated, e.g. CROSSCHECK_SUT_ARGV=systemds,-f,x.
func bindEnvVars(v *viper.Viper) {
	envBindings := []string{
		"workspace",
		"database",
		"catalog",
		"variant",
		"parallel",
		"seed",
		"keep_artifacts",
		"fixed_input",
		"tolerance",
		"sut.argv",
		"sut.env",
		"sut.dir",
		"sut.format",
		"reference.argv",
		"reference.env",
		"reference.dir",
		"reference.format",
		"skip.env",
		"skip.cases",
		"log.level",
		"log.format",
	}

	for _, key := range envBindings {
		envVar := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envVar)
	}
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Workspace = expandTilde(cfg.Workspace)
	cfg.Database = expandTilde(cfg.Database)
	cfg.Catalog = expandTilde(cfg.Catalog)
	cfg.FixedInput = expandTilde(cfg.FixedInput)
	cfg.SUT.Dir = expandTilde(cfg.SUT.Dir)
	cfg.Reference.Dir = expandTilde(cfg.Reference.Dir)
}
