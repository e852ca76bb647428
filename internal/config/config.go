// Package config resolves devpulse settings from flags, environment and an optional
// .devpulse.yaml file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/viper"
	"github.com/sprite-ai/devpulse/internal/history"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/output"
)

// Defaults.
const (
	DefaultServiceURL = "http://127.0.0.1:8000"
	DefaultTimeout    = 10 * time.Minute
	DefaultLogLevel   = "warn"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the resolved configuration.
type Config struct {
	ServiceURL string        `mapstructure:"service-url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Format     output.Format `mapstructure:"format"`
	Color      string        `mapstructure:"color"`
	CodeTheme  string        `mapstructure:"code-theme"`
	History    bool          `mapstructure:"history"`
	HistoryDB  string        `mapstructure:"history-db"`
	LogLevel   string        `mapstructure:"log-level"`
	LogFile    string        `mapstructure:"log-file"`
}

// Setup points v at the config file (or .devpulse.yaml in . and $HOME) and the
// DEVPULSE_ environment, then registers defaults.
func Setup(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".devpulse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	bindEnv(v)
	SetDefaults(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DEVPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("service-url", DefaultServiceURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("format", string(output.FormatText))
	v.SetDefault("color", ColorAuto)
	v.SetDefault("code-theme", markdown.DefaultTheme)
	v.SetDefault("history", true)
	v.SetDefault("history-db", history.DefaultPath())
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", "")
}

// Load reads the config file (if any) into v, then unmarshals and validates it.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and normalizes the enumerated ones in place.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid service-url %q: want an http(s) URL", c.ServiceURL)
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}

	f, err := output.ParseFormat(string(c.Format))
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	c.Format = f

	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q (want auto, always or never)", c.Color)
	}

	if _, ok := styles.Registry[c.CodeTheme]; !ok {
		return fmt.Errorf("unknown code-theme %q", c.CodeTheme)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q (want debug, info, warn or error)", c.LogLevel)
	}
	return l, nil
}
