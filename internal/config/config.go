// Package config loads the editor configuration from a yaml file via
// viper, with defaults for every field so a missing file still yields
// a working setup.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full editor configuration.
type Config struct {
	Tracking   Tracking   `mapstructure:"tracking"`
	Completion Completion `mapstructure:"completion"`
	Save       Save       `mapstructure:"save"`
	Command    Command    `mapstructure:"command"`
	Diff       Diff       `mapstructure:"diff"`
	Log        Log        `mapstructure:"log"`
}

// Tracking configures the track-change store.
type Tracking struct {
	Enabled bool   `mapstructure:"enabled"`
	Author  string `mapstructure:"author"`
}

// Completion configures the inline-completion provider.
type Completion struct {
	// Provider selects the backend: "off", "spark", or "openai".
	Provider string        `mapstructure:"provider"`
	Debounce time.Duration `mapstructure:"debounce"`
	Timeout  time.Duration `mapstructure:"timeout"`

	Spark  Spark  `mapstructure:"spark"`
	OpenAI OpenAI `mapstructure:"openai"`
}

// Spark holds the Xunfei Spark credentials and endpoint overrides.
type Spark struct {
	AppID     string `mapstructure:"app_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Host      string `mapstructure:"host"`
	Path      string `mapstructure:"path"`
	Domain    string `mapstructure:"domain"`
}

// OpenAI holds the OpenAI credentials and model selection.
type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Save configures the debounced save hook.
type Save struct {
	Quiet time.Duration `mapstructure:"quiet"`
}

// Command configures the slash-command dispatcher.
type Command struct {
	Prefix string `mapstructure:"prefix"`
}

// Diff configures the edit-script engine.
type Diff struct {
	MaxUnits int `mapstructure:"max_units"`
}

// Log configures logging output.
type Log struct {
	Verbosity int    `mapstructure:"verbosity"`
	Path      string `mapstructure:"path"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Tracking: Tracking{Author: "local"},
		Completion: Completion{
			Provider: "off",
			Debounce: 500 * time.Millisecond,
			Timeout:  10 * time.Second,
		},
		Save:    Save{Quiet: 2 * time.Second},
		Command: Command{Prefix: "/"},
	}
}

// Load reads redline.yaml from path (or the working directory and
// ~/.config/redline when path is empty) and merges it over Default.
// A missing file is only an error when a path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("redline")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/redline")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// PrefixRune returns the command prefix as a rune, or 0 when unset.
func (c Command) PrefixRune() rune {
	for _, r := range c.Prefix {
		return r
	}
	return 0
}
