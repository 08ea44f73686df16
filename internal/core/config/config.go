package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultInspectTemplate is the mustache template used by inspect. Free-text
// fields use triple braces so they are not HTML-escaped.
const DefaultInspectTemplate = `{{{name}}}{{^name}}(untitled){{/name}}
  id:          {{id}}
  game system: {{{game_system_id}}}
{{#author}}  author:      {{{author}}}
{{/author}}{{#isbn}}  isbn:        {{{isbn}}}
{{/isbn}}{{#created}}  created:     {{created}} ({{created_ago}})
{{/created}}{{#revised}}  revised:     {{revised}} ({{revised_ago}})
{{/revised}}  path:        {{{path}}}
{{#description}}
{{{description}}}
{{/description}}`

type Config struct {
	CatalogPath     string // SQLite catalog of known archives
	ArchiveDir      string // Where sync looks for archives by default
	UnpackDir       string // Parent directory for unpack when no destination is given
	LogLevel        string
	InspectTemplate string // Mustache template for inspect output
}

type tomlConfig struct {
	CatalogPath     string `toml:"catalog_path"`
	ArchiveDir      string `toml:"archive_dir"`
	UnpackDir       string `toml:"unpack_dir"`
	LogLevel        string `toml:"log_level"`
	InspectTemplate string `toml:"inspect_template"`
}

// Dir returns ~/.config/dmclient
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, ".config", "dmclient")
}

// DefaultPath returns the default config.toml location
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Defaults returns the configuration used when no file overrides it
func Defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return &Config{
		CatalogPath:     filepath.Join(Dir(), "archives.db"),
		ArchiveDir:      filepath.Join(home, "dmclient", "archives"),
		UnpackDir:       filepath.Join(home, "dmclient", "campaigns"),
		LogLevel:        "info",
		InspectTemplate: DefaultInspectTemplate,
	}
}

// Load reads config from ~/.config/dmclient/
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the TOML file at path over the defaults. A missing file is
// not an error; a file that does not parse is.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if tc.CatalogPath != "" {
		cfg.CatalogPath = expandHome(tc.CatalogPath)
	}
	if tc.ArchiveDir != "" {
		cfg.ArchiveDir = expandHome(tc.ArchiveDir)
	}
	if tc.UnpackDir != "" {
		cfg.UnpackDir = expandHome(tc.UnpackDir)
	}
	if tc.LogLevel != "" {
		cfg.LogLevel = tc.LogLevel
	}
	if tc.InspectTemplate != "" {
		cfg.InspectTemplate = tc.InspectTemplate
	}

	// A template file beside the TOML wins over the inline key
	templatePath := filepath.Join(filepath.Dir(path), "inspect_template.txt")
	if data, err := os.ReadFile(templatePath); err == nil {
		cfg.InspectTemplate = string(data)
	}

	return cfg, nil
}

func expandHome(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
