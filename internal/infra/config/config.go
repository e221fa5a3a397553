// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fanmade/nowplaying/internal/apperr"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Static   StaticConfig   `yaml:"static"`
	Playback PlaybackConfig `yaml:"playback"`
	Media    MediaConfig    `yaml:"media"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig represents the site the player talks to.
type ServerConfig struct {
	BaseURL    string `yaml:"base_url" validate:"required,url"`
	Page       string `yaml:"page" default:"/"`
	TimeoutSec int    `yaml:"timeout_sec" default:"10" validate:"gte=1,lte=120"`
}

// StaticConfig represents static asset configuration.
type StaticConfig struct {
	// Path is the URL prefix of the icon files.
	Path string `yaml:"path" validate:"required"`
	// Icons adds icon names to the default registry.
	Icons map[string]string `yaml:"icons"`
}

// PlaybackConfig represents playback controller configuration.
type PlaybackConfig struct {
	ResyncCursorOnSelect bool `yaml:"resync_cursor_on_select"`
	EventBuffer          int  `yaml:"event_buffer" default:"16" validate:"gte=1,lte=1024"`
	Autoplay             bool `yaml:"autoplay"`
}

// MediaConfig selects and configures the audio backend.
type MediaConfig struct {
	Type     string         `yaml:"type" default:"null" validate:"oneof=beep null"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML data, applying environment
// overrides, defaults and validation in that order.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("FANMADE_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("FANMADE_STATIC_PATH"); v != "" {
		c.Static.Path = v
	}
	if v := os.Getenv("FANMADE_MEDIA_TYPE"); v != "" {
		c.Media.Type = v
	}
}

// Validate validates the configuration. Every failure is an
// apperr.ErrConfiguration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Mark(errors.Wrap(err, "struct validation failed"), apperr.ErrConfiguration)
	}

	for name, file := range c.Static.Icons {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(file) == "" {
			return errors.Mark(errors.Newf("icon entry %q -> %q must have a name and a file", name, file), apperr.ErrConfiguration)
		}
	}

	return nil
}

// StaticURL returns the static path with a trailing slash so file names can
// be appended to it.
func (c *Config) StaticURL() string {
	if strings.HasSuffix(c.Static.Path, "/") {
		return c.Static.Path
	}
	return c.Static.Path + "/"
}
