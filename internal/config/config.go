// Package config loads typroxy CLI configuration from an optional YAML
// file and TYPROXY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/broady/typroxy/internal/export"
)

// DefaultFile is read when no configuration file is given. It is optional.
const DefaultFile = "typroxy.yaml"

// Config represents the CLI configuration.
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// SourceConfig selects the contracts to load.
type SourceConfig struct {
	Patterns     []string `mapstructure:"patterns"`      // go package patterns
	Dir          string   `mapstructure:"dir"`           // working directory for the go command
	BaseContract string   `mapstructure:"base_contract"` // base interface, "Name" or "path.Name"
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `mapstructure:"format"` // any name export.ForFormat accepts
	Path   string `mapstructure:"path"`   // "-" writes to stdout
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn or error
	Format string `mapstructure:"format"` // text or json
}

// Load reads the configuration. An empty path reads DefaultFile if it
// exists; an explicit path must exist. Environment variables override the
// file: source.base_contract is TYPROXY_SOURCE_BASE_CONTRACT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("typroxy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	optional := path == ""
	if optional {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	var used string
	if err := v.ReadInConfig(); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.patterns", []string{"."})
	v.SetDefault("source.dir", "")
	v.SetDefault("source.base_contract", "")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "-")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Source.Patterns) == 0 {
		return errors.New("source.patterns must contain at least one pattern")
	}
	if _, err := export.ForFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
