// Package config loads termtodo's project configuration from
// <data dir>/config.yaml with TERMTODO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/leeovery/termtodo/internal/kv"
)

// FileName is the config file inside the data directory.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides; storage.backend becomes
// TERMTODO_STORAGE_BACKEND.
const EnvPrefix = "TERMTODO"

// Config is the merged configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
}

// StorageConfig selects and tunes the key-value backend.
type StorageConfig struct {
	Backend     string        `yaml:"backend" mapstructure:"backend"`
	Namespace   string        `yaml:"namespace" mapstructure:"namespace"`
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// LogConfig configures the console logger and the optional rotated file.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// OutputConfig sets the default CLI output format. Empty means pick by TTY.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures `termtodo serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:     kv.BackendFile,
			Namespace:   kv.DefaultNamespace,
			LockTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{Addr: "127.0.0.1:7878"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.namespace", d.Storage.Namespace)
	v.SetDefault("storage.lock_timeout", d.Storage.LockTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Load reads dataDir/config.yaml if present, applies environment overrides,
// and validates the result. A missing file yields the defaults.
func Load(dataDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dataDir != "" {
		path := filepath.Join(dataDir, FileName)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	var errs []error
	if !kv.ValidBackend(c.Storage.Backend) {
		errs = append(errs, &kv.UnknownBackendError{Name: c.Storage.Backend})
	}
	switch c.Output.Format {
	case "", "toon", "pretty", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid output.format %q (valid: toon, pretty, json)", c.Output.Format))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log.level: %w", err))
	}
	if c.Storage.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("storage.lock_timeout must be positive, got %s", c.Storage.LockTimeout))
	}
	return errors.Join(errs...)
}

// fileLayout mirrors Config with durations as text so the written file reads
// "5s" rather than nanoseconds.
type fileLayout struct {
	Storage struct {
		Backend     string `yaml:"backend"`
		Namespace   string `yaml:"namespace"`
		LockTimeout string `yaml:"lock_timeout"`
	} `yaml:"storage"`
	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var f fileLayout
	f.Storage.Backend = cfg.Storage.Backend
	f.Storage.Namespace = cfg.Storage.Namespace
	f.Storage.LockTimeout = cfg.Storage.LockTimeout.String()
	f.Log = cfg.Log
	f.Output = cfg.Output
	f.Server = cfg.Server
	return yaml.Marshal(f)
}

// WriteDefault writes the default configuration to path unless a file already
// exists there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	header := []byte("# termtodo configuration\n# Environment overrides use the TERMTODO_ prefix, e.g. TERMTODO_STORAGE_BACKEND=sqlite\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
