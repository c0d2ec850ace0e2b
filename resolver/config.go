package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

var ErrConfigFormat = errors.New("unsupported config format")

// Config configures an FS resolver. It is read from YAML or TOML:
//
//	searchPaths:
//	  - ./assets
//	  - /shared/library
//	aliases:
//	  hero.sdf: ./characters/hero/hero.sdf
type Config struct {
	SearchPaths []string          `yaml:"searchPaths" toml:"searchPaths"`
	Aliases     map[string]string `yaml:"aliases" toml:"aliases"`
}

// LoadConfig reads a config file, choosing the format by extension.
// Relative search paths and alias targets are taken relative to the
// directory holding the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resolver config: %w", err)
	}
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrConfigFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse resolver config %s: %w", path, err)
	}
	cfg.anchor(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) anchor(dir string) {
	for i, p := range c.SearchPaths {
		if !filepath.IsAbs(p) {
			c.SearchPaths[i] = filepath.Join(dir, p)
		}
	}
	for k, v := range c.Aliases {
		if filepath.IsAbs(v) {
			continue
		}
		t := filepath.Join(dir, v)
		if !filepath.IsAbs(t) && !strings.HasPrefix(t, "..") {
			t = "./" + t
		}
		c.Aliases[k] = t
	}
}

// Resolver returns an FS resolver configured by c.
func (c *Config) Resolver() *FS {
	return &FS{SearchPaths: c.SearchPaths, Aliases: c.Aliases}
}
