package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recera/jsxlite/internal/cache"
	"github.com/recera/jsxlite/pkg/compiler"
	"github.com/recera/jsxlite/pkg/generator/liquid"
	"github.com/recera/jsxlite/pkg/naming"
	"github.com/recera/jsxlite/pkg/parser"
)

// FileName is the project configuration file looked up by Load.
const FileName = "jsxlite.yaml"

// Config represents the jsxlite.yaml configuration
type Config struct {
	// Targets compiled when no --target flag is given
	Targets []string `yaml:"targets,omitempty"`

	// Directory scanned for components
	SrcDir string `yaml:"srcDir,omitempty"`

	// Directory generated files are written to
	OutDir string `yaml:"outDir,omitempty"`

	// File suffixes treated as components
	Extensions []string `yaml:"extensions,omitempty"`

	// Import source that declares the DSL primitives
	CoreModule string `yaml:"coreModule,omitempty"`

	// Number of files compiled in parallel
	Jobs int `yaml:"jobs,omitempty"`

	// Tags that never have children; replaces the HTML set when non-empty
	VoidElements []string `yaml:"voidElements,omitempty"`

	Liquid *LiquidConfig `yaml:"liquid,omitempty"`
	Cache  *CacheConfig  `yaml:"cache,omitempty"`
	Serve  *ServeConfig  `yaml:"serve,omitempty"`
}

// LiquidConfig contains liquid target configuration
type LiquidConfig struct {
	// Logic is "drop" or "reject"
	Logic string `yaml:"logic,omitempty"`
}

// CacheConfig contains build cache configuration
type CacheConfig struct {
	Enabled  *bool         `yaml:"enabled,omitempty"`
	Dir      string        `yaml:"dir,omitempty"`
	MaxSize  int64         `yaml:"maxSize,omitempty"`
	MaxAge   time.Duration `yaml:"maxAge,omitempty"`
	Strategy string        `yaml:"strategy,omitempty"`
}

// ServeConfig contains compile server configuration
type ServeConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// Load loads configuration from jsxlite.yaml in projectPath. A missing file
// yields the defaults.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, FileName)

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults. Unknown keys are
// rejected so typos do not go unnoticed.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to jsxlite.yaml in projectPath.
func Save(cfg *Config, projectPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cacheDefaults := cache.DefaultConfig()
	enabled := true
	return &Config{
		Targets:    []string{compiler.DefaultTarget},
		SrcDir:     "src",
		OutDir:     "dist",
		Extensions: []string{".lite.tsx", ".lite.jsx"},
		CoreModule: parser.DefaultCoreModule,
		Jobs:       runtime.NumCPU(),
		Liquid:     &LiquidConfig{Logic: liquid.DropLogic.String()},
		Cache: &CacheConfig{
			Enabled:  &enabled,
			Dir:      cacheDefaults.Dir,
			MaxSize:  cacheDefaults.MaxSize,
			MaxAge:   cacheDefaults.MaxAge,
			Strategy: cacheDefaults.Strategy.String(),
		},
		Serve: &ServeConfig{
			Host: "localhost",
			Port: 3000,
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if len(cfg.Targets) == 0 {
		cfg.Targets = defaults.Targets
	}
	if cfg.SrcDir == "" {
		cfg.SrcDir = defaults.SrcDir
	}
	if cfg.OutDir == "" {
		cfg.OutDir = defaults.OutDir
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = defaults.Extensions
	}
	if cfg.CoreModule == "" {
		cfg.CoreModule = defaults.CoreModule
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = defaults.Jobs
	}

	if cfg.Liquid == nil {
		cfg.Liquid = defaults.Liquid
	} else if cfg.Liquid.Logic == "" {
		cfg.Liquid.Logic = defaults.Liquid.Logic
	}

	if cfg.Cache == nil {
		cfg.Cache = defaults.Cache
	} else {
		if cfg.Cache.Enabled == nil {
			cfg.Cache.Enabled = defaults.Cache.Enabled
		}
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = defaults.Cache.Dir
		}
		if cfg.Cache.MaxSize == 0 {
			cfg.Cache.MaxSize = defaults.Cache.MaxSize
		}
		if cfg.Cache.MaxAge == 0 {
			cfg.Cache.MaxAge = defaults.Cache.MaxAge
		}
		if cfg.Cache.Strategy == "" {
			cfg.Cache.Strategy = defaults.Cache.Strategy
		}
	}

	if cfg.Serve == nil {
		cfg.Serve = defaults.Serve
	} else {
		if cfg.Serve.Host == "" {
			cfg.Serve.Host = defaults.Serve.Host
		}
		if cfg.Serve.Port == 0 {
			cfg.Serve.Port = defaults.Serve.Port
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, t := range compiler.New(compiler.Options{}).Targets() {
		known[t] = true
	}
	for _, t := range c.Targets {
		if !known[compiler.Resolve(t)] {
			return fmt.Errorf("%s: unknown target %q", FileName, t)
		}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%s: extension %q must start with a dot", FileName, ext)
		}
	}
	if _, err := liquid.ParseLogicPolicy(c.Liquid.Logic); err != nil {
		return fmt.Errorf("%s: liquid.logic: %w", FileName, err)
	}
	if _, err := cache.ParseStrategy(c.Cache.Strategy); err != nil {
		return fmt.Errorf("%s: cache.strategy: %w", FileName, err)
	}
	if c.Cache.MaxSize < 0 || c.Cache.MaxAge < 0 {
		return fmt.Errorf("%s: cache limits must not be negative", FileName)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("%s: serve.port %d out of range", FileName, c.Serve.Port)
	}
	return nil
}

// CompilerOptions returns the compiler settings described by the config.
func (c *Config) CompilerOptions() compiler.Options {
	opts := compiler.Options{CoreModule: c.CoreModule}
	opts.LiquidLogic, _ = liquid.ParseLogicPolicy(c.Liquid.Logic)
	if len(c.VoidElements) > 0 {
		opts.Tags = naming.New(naming.WithVoidElements(c.VoidElements...))
	}
	return opts
}

// CacheEnabled reports whether compiled outputs are cached.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// CacheOptions returns the cache settings described by the config.
func (c *Config) CacheOptions() cache.Config {
	strategy, _ := cache.ParseStrategy(c.Cache.Strategy)
	return cache.Config{
		Dir:      c.Cache.Dir,
		MaxSize:  c.Cache.MaxSize,
		MaxAge:   c.Cache.MaxAge,
		Strategy: strategy,
	}
}

// Addr returns the compile server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Serve.Host, c.Serve.Port)
}

// IsSource reports whether path has one of the component extensions.
func (c *Config) IsSource(path string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
