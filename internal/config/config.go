package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// DevEnv forces development mode when set to "1" or "true".
const DevEnv = "PAGECRAFT_DEV"

// Store backends.
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
	BackendKuzu   = "kuzu"
	BackendMemory = "memory"
)

// Config holds site settings loaded from pagecraft.yml.
type Config struct {
	Addr          string            `yaml:"addr,omitempty"`
	Mode          string            `yaml:"mode,omitempty"`
	LogLevel      string            `yaml:"logLevel,omitempty"`
	TemplateDir   string            `yaml:"templateDir,omitempty"`
	PreviewDrafts bool              `yaml:"previewDrafts,omitempty"`
	CacheMaxAge   int               `yaml:"cacheMaxAge,omitempty"`
	Store         StoreConfig       `yaml:"store"`
	Collections   CollectionsConfig `yaml:"collections,omitempty"`
}

// StoreConfig selects and configures the content store.
type StoreConfig struct {
	Backend    string        `yaml:"backend,omitempty"`
	URL        string        `yaml:"url,omitempty"`
	SQLitePath string        `yaml:"sqlitePath,omitempty"`
	KuzuPath   string        `yaml:"kuzuPath,omitempty"`
	SeedFile   string        `yaml:"seedFile,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// CollectionsConfig lists the related collections gathered per page.
type CollectionsConfig struct {
	Default []content.Request            `yaml:"default,omitempty"`
	Pages   map[string][]content.Request `yaml:"pages,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Addr:        ":8080",
		Mode:        "production",
		LogLevel:    "info",
		CacheMaxAge: 60,
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join("data", "content.db"),
			KuzuPath:   filepath.Join("data", "graph"),
			Timeout:    10 * time.Second,
		},
	}
}

// Load reads pagecraft.yml or pagecraft.yaml from dir over the defaults.
// A missing file is not an error.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"pagecraft.yml", "pagecraft.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFile reads the configuration at path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	switch os.Getenv(DevEnv) {
	case "1", "true":
		c.Mode = "development"
	}
}

// Development reports whether unknown sections render placeholders.
func (c *Config) Development() bool {
	return c.Mode == "development" || c.Mode == "dev"
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// Validate checks enumerated fields and collection names.
func (c *Config) Validate() error {
	switch c.Mode {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendHTTP:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the http backend")
		}
	case BackendSQLite, BackendKuzu, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	for _, r := range c.Collections.Default {
		if !r.Collection.Valid() {
			return fmt.Errorf("collections.default: unknown collection %q", r.Collection)
		}
	}
	for slug, reqs := range c.Collections.Pages {
		for _, r := range reqs {
			if !r.Collection.Valid() {
				return fmt.Errorf("collections.pages.%s: unknown collection %q", slug, r.Collection)
			}
		}
	}
	return nil
}

// WriteFile writes cfg to path atomically.
func WriteFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
