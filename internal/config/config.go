// Package config loads ~/.wanderword/config.yaml and applies environment
// overrides on top of the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/provider"
	"github.com/pbaille/wanderword/internal/resolver"
)

// DirName is the per-user directory holding the config file and database
const DirName = ".wanderword"

const defaultConfigYAML = `# wanderword configuration

# SQLite cache of generated journeys and favourites. "~" expands to $HOME.
db: ~/.wanderword/wanderword.db

# Artificial latency on archive and cache hits so results never appear instantly.
delays:
  archive: 600ms
  cache: 400ms

# Pause between a journey loading and playback starting. 0 disables auto-play.
autoplay_delay: 800ms

# What a provider's explicit "word not found" does: cascade to the next provider or fail_fast.
not_found_policy: cascade

# Generation chain, most capable first. At most three entries.
providers:
  - kind: gemini
    model: gemini-3-flash-preview
  - kind: gemini
    model: gemini-2.5-flash
  - kind: gemini
    model: gemini-1.5-flash

server:
  addr: :8080
  public_url: http://localhost:8080

log:
  level: info
  format: text
`

// ProviderConfig declares one generation provider in the chain
type ProviderConfig struct {
	Kind      string `yaml:"kind"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// DelayConfig holds the artificial tier latencies
type DelayConfig struct {
	Archive time.Duration `yaml:"archive"`
	Cache   time.Duration `yaml:"cache"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"`
}

// LogConfig configures slog output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// Config is the runtime configuration
type Config struct {
	DB             string           `yaml:"db"`
	Delays         DelayConfig      `yaml:"delays"`
	AutoplayDelay  time.Duration    `yaml:"autoplay_delay"`
	NotFoundPolicy string           `yaml:"not_found_policy"`
	Providers      []ProviderConfig `yaml:"providers"`
	Server         ServerConfig     `yaml:"server"`
	Log            LogConfig        `yaml:"log"`
}

// Default returns the built-in configuration
func Default() Config {
	var c Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &c); err != nil {
		panic(fmt.Sprintf("config: embedded default: %v", err))
	}
	return c
}

// DefaultPath returns ~/.wanderword/config.yaml
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DirName, "config.yaml")
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	c.applyEnv(getenv)
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// EnsureFile writes the default config to path unless a file already exists.
// It reports whether a file was written.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("WANDERWORD_DB"); v != "" {
		c.DB = v
	}
	if v := getenv("WANDERWORD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) normalize() {
	c.DB = expandHome(strings.TrimSpace(c.DB))
	c.Log.File = expandHome(strings.TrimSpace(c.Log.File))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.NotFoundPolicy = strings.ToLower(strings.TrimSpace(c.NotFoundPolicy))
	for i := range c.Providers {
		p := &c.Providers[i]
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		p.Model = strings.TrimSpace(p.Model)
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = defaultKeyEnv(p.Kind)
		}
	}
}

// Validate checks the configuration for values nothing downstream can use
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db is required")
	}
	if c.Delays.Archive < 0 || c.Delays.Cache < 0 || c.AutoplayDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	switch resolver.NotFoundPolicy(c.NotFoundPolicy) {
	case resolver.Cascade, resolver.FailFast:
	default:
		return fmt.Errorf("not_found_policy must be %q or %q", resolver.Cascade, resolver.FailFast)
	}
	if len(c.Providers) > domain.MaxLiveTiers {
		return fmt.Errorf("at most %d providers are supported, got %d", domain.MaxLiveTiers, len(c.Providers))
	}
	for i, p := range c.Providers {
		if err := p.validate(); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func (p ProviderConfig) validate() error {
	switch p.Kind {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("kind must be 'gemini' or 'anthropic'")
	}
	if p.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// Policy returns the configured not-found policy
func (c Config) Policy() resolver.NotFoundPolicy {
	return resolver.NotFoundPolicy(c.NotFoundPolicy)
}

// Chain builds the generation providers. Entries whose API key is missing
// are skipped with a warning so the archive and cache keep working offline.
func (c Config) Chain(logger *slog.Logger) []provider.Provider {
	return c.chain(os.Getenv, logger)
}

func (c Config) chain(getenv func(string) string, logger *slog.Logger) []provider.Provider {
	var chain []provider.Provider
	for _, pc := range c.Providers {
		opts := []provider.Option{provider.WithEndpoint(pc.Endpoint), provider.WithMaxTokens(pc.MaxTokens)}
		key := getenv(pc.APIKeyEnv)

		var (
			p   provider.Provider
			err error
		)
		switch pc.Kind {
		case "gemini":
			p, err = provider.NewGemini(key, pc.Model, opts...)
		case "anthropic":
			p, err = provider.NewAnthropic(key, pc.Model, opts...)
		}
		if err != nil {
			logger.Warn("provider disabled", "kind", pc.Kind, "model", pc.Model, "env", pc.APIKeyEnv, "error", err)
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// ParseLevel maps debug|info|warn|error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a logger writing to w, or to log.file when set.
// The returned closer releases the file and is never nil.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	var closer io.Closer = nopCloser{}
	if c.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Log.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultKeyEnv(kind string) string {
	switch kind {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
