// Package config loads the optional YAML configuration file cmd/ecap reads
// for default flag values, decoding it strictly and then validating it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds cmd/ecap's optional defaults. Only the encode subcommand
// loads it, and only the Carrier section is applied there: an explicit
// non-zero flag overrides each Carrier field. The Logging section is parsed
// and validated but not applied; log level and format come from the -v and
// -log-format flags alone.
type Config struct {
	Carrier CarrierConfig `yaml:"carrier"`
	Logging LoggingConfig `yaml:"logging"`
}

type CarrierConfig struct {
	// BitsPerChannel is the default PNG LSB planes per RGB byte (1 or 2).
	BitsPerChannel *int `yaml:"bits_per_channel"`
	// MaxPixels bounds decoded PNG pixel count; 0/absent uses ecap.DefaultMaxPixels.
	MaxPixels *int `yaml:"max_pixels"`
}

type LoggingConfig struct {
	Verbose *bool  `yaml:"verbose"`
	Format  string `yaml:"format"`
}

// Load reads and validates the YAML config at path. A missing file is not
// an error: Load returns the zero Config so callers fall back to flag
// defaults, matching cmd/ecap's "config is optional" contract.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Carrier.BitsPerChannel != nil {
		bpc := *c.Carrier.BitsPerChannel
		if bpc != 1 && bpc != 2 {
			return fmt.Errorf("config.carrier.bits_per_channel must be 1 or 2, got %d", bpc)
		}
	}
	if c.Carrier.MaxPixels != nil && *c.Carrier.MaxPixels < 0 {
		return fmt.Errorf("config.carrier.max_pixels must be >= 0")
	}
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format != "" && format != "text" && format != "json" {
		return fmt.Errorf("config.logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// DefaultPath returns the config.yaml path next to the running executable.
func DefaultPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), "config.yaml"), nil
}
