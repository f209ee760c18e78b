package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. LOGKEEP_LOG_PATHS or
// LOGKEEP_TRIM__MAX_LINES (a double underscore separates nested keys).
const EnvPrefix = "LOGKEEP_"

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		c.FilePath = abs
	} else {
		c.FilePath = path
	}
	return c, nil
}

// LoadWithEnv loads path and applies environment overrides. A missing file
// is not an error: defaults plus environment are returned.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		c = Default()
	}
	if err := ApplyEnv(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overlays LOGKEEP_* environment variables onto c.
func ApplyEnv(c *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}
	return nil
}

// Save writes the config as YAML.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := []byte("# logkeep configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
