// Package config provides configuration loading functionality.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/maestro/internal/domain"
	"gopkg.in/yaml.v3"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from a TOML or YAML file.
// Fields are ordered to minimize memory padding.
type Loader struct {
	getenv   func(string) string
	explicit string // Path given with --config
	workDir  string // Directory searched for maestro.toml
}

// NewLoader creates a Loader. explicit may be empty.
func NewLoader(explicit, workDir string) *Loader {
	return &Loader{
		explicit: explicit,
		workDir:  workDir,
		getenv:   os.Getenv,
	}
}

// NewLoaderWithEnv creates a Loader with a custom environment lookup.
// This is useful for testing.
func NewLoaderWithEnv(explicit, workDir string, getenv func(string) string) *Loader {
	return &Loader{
		explicit: explicit,
		workDir:  workDir,
		getenv:   getenv,
	}
}

// Path returns the config file in effect and whether it was named
// explicitly (flag or environment). An explicitly named file must exist.
func (l *Loader) Path() (string, bool) {
	if l.explicit != "" {
		return l.explicit, true
	}
	if env := l.getenv(domain.EnvConfig); env != "" {
		return env, true
	}
	return filepath.Join(l.workDir, domain.ConfigFileName), false
}

// Load returns the effective configuration: defaults overlaid by the file.
// A missing default file yields the defaults.
func (l *Loader) Load() (*domain.Config, error) {
	path, required := l.Path()
	cfg := domain.NewDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// decode overlays data onto cfg. Unknown keys are rejected so that typos
// do not silently fall back to defaults.
func decode(path string, data []byte, cfg *domain.Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}
