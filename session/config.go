package session

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumenui/bridge/errors"
)

// Config holds optional session settings read from bridge.yaml.
type Config struct {
	// DebounceMS is the reload debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms,omitempty"`
	// AutoReload enables reload-on-save for loaded definitions.
	AutoReload *bool `yaml:"auto_reload,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// QuitOnLastWindow stops the loop when the last window closes.
	QuitOnLastWindow *bool `yaml:"quit_on_last_window,omitempty"`
}

// LoadOptional reads bridge.yaml from dir if present. A missing file
// yields the zero config, not an error.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "bridge.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.New(errors.PhaseInit, errors.KindParse).
			Entity("config").
			Name(path).
			Cause(err).
			Build()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Parse(errors.PhaseInit, path, err)
	}
	return &cfg, nil
}

// Debounce returns the configured debounce interval, or zero when the
// config does not set one.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 0
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}
