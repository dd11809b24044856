package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tablechart-cli/internal/utils"
)

// EnvPrefix is prepended to every key when read from the environment
// (api_key -> TABLECHART_API_KEY).
const EnvPrefix = "TABLECHART"

// Global configuration structure.
type Global struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	HTTPTimeoutSec    int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	ServiceTimeoutSec int `mapstructure:"service_timeout_sec" yaml:"service_timeout_sec"`

	SampleRows  int    `mapstructure:"sample_rows" yaml:"sample_rows"`
	MaxRows     int    `mapstructure:"max_rows" yaml:"max_rows"`
	Aggregation string `mapstructure:"aggregation" yaml:"aggregation"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"api_key":             "",
	"provider":            "openrouter",
	"model":               "",
	"base_url":            "",
	"ollama_host":         "http://127.0.0.1:11434",
	"http_timeout_sec":    60,
	"service_timeout_sec": 15,
	"sample_rows":         5,
	"max_rows":            0,
	"aggregation":         "mean",
	"log_level":           "warn",
}

// Keys lists every configuration key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Default returns a configuration holding only the built-in defaults.
func Default() *Global {
	return &Global{
		Provider:          defaults["provider"].(string),
		OllamaHost:        defaults["ollama_host"].(string),
		HTTPTimeoutSec:    defaults["http_timeout_sec"].(int),
		ServiceTimeoutSec: defaults["service_timeout_sec"].(int),
		SampleRows:        defaults["sample_rows"].(int),
		Aggregation:       defaults["aggregation"].(string),
		LogLevel:          defaults["log_level"].(string),
	}
}

// DefaultPath returns ~/.tablechart/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tablechart", "config.yaml"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// The key is also honored under the provider's conventional name.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENROUTER_API_KEY")

	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the configuration to cfgFile (or DefaultPath) under a
// cross-process lock, replacing the file atomically.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock config: %s is held by another process", path+".lock")
	}
	defer func() { _ = lock.Unlock() }()

	if err := utils.SafeWriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns a single key from its string form after validating it.
func (c *Global) Set(key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
		}
		return n, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = value
	case "provider":
		c.Provider = strings.ToLower(value)
	case "model":
		c.Model = value
	case "base_url":
		c.BaseURL = value
	case "ollama_host":
		c.OllamaHost = value
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "service_timeout_sec":
		c.ServiceTimeoutSec, err = atoi()
	case "sample_rows":
		c.SampleRows, err = atoi()
	case "max_rows":
		c.MaxRows, err = atoi()
	case "aggregation":
		c.Aggregation = strings.ToLower(value)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks enumerated values.
func (c *Global) Validate() error {
	switch c.Provider {
	case "openrouter", "ollama", "none":
	default:
		return fmt.Errorf("provider must be one of openrouter, ollama, none; got %q", c.Provider)
	}
	switch c.Aggregation {
	case "mean", "sum":
	default:
		return fmt.Errorf("aggregation must be mean or sum; got %q", c.Aggregation)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// MaskedKey returns the API key with all but its last four characters hidden.
func (c *Global) MaskedKey() string {
	k := c.APIKey
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

// HTTPTimeout and ServiceTimeout convert the second counts to durations.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func (c *Global) ServiceTimeout() time.Duration {
	return time.Duration(c.ServiceTimeoutSec) * time.Second
}
