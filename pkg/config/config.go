package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the client.
type Config struct {
	ServerURL         string
	RequestTimeout    time.Duration
	PollInterval      time.Duration
	CountdownInterval time.Duration
	CacheDir          string
	StoreDriver       string
	StoreDSN          string
	StoreNamespace    string
	APIAddr           string
	LogLevel          string
}

const (
	defaultConfigPath        = "~/.config/reactions/config.toml"
	defaultServerURL         = "http://localhost:8080"
	defaultRequestTimeout    = 10 * time.Second
	defaultPollInterval      = 1 * time.Second
	defaultCountdownInterval = 1 * time.Second
	defaultCacheDir          = "~/.cache/reactions/assets"
	defaultStoreDriver       = "sqlite"
	defaultStoreDSN          = "~/.local/share/reactions/client.db"
	defaultAPIAddr           = "127.0.0.1:7480"
	defaultLogLevel          = "info"
)

const (
	EnvServerURL   = "REACTIONS_SERVER_URL"
	EnvDatabaseURL = "DATABASE_URL"
)

// fileConfig is the on-disk layout shared by the TOML and YAML formats.
type fileConfig struct {
	ServerURL         string `toml:"server_url" yaml:"server_url"`
	RequestTimeout    string `toml:"request_timeout" yaml:"request_timeout"`
	PollInterval      string `toml:"poll_interval" yaml:"poll_interval"`
	CountdownInterval string `toml:"countdown_interval" yaml:"countdown_interval"`
	CacheDir          string `toml:"cache_dir" yaml:"cache_dir"`
	StoreDriver       string `toml:"store_driver" yaml:"store_driver"`
	StoreDSN          string `toml:"store_dsn" yaml:"store_dsn"`
	StoreNamespace    string `toml:"store_namespace" yaml:"store_namespace"`
	APIAddr           string `toml:"api_addr" yaml:"api_addr"`
	LogLevel          string `toml:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ServerURL:         defaultServerURL,
		RequestTimeout:    defaultRequestTimeout,
		PollInterval:      defaultPollInterval,
		CountdownInterval: defaultCountdownInterval,
		CacheDir:          mustExpand(defaultCacheDir),
		StoreDriver:       defaultStoreDriver,
		StoreDSN:          mustExpand(defaultStoreDSN),
		StoreNamespace:    defaultNamespace(),
		APIAddr:           defaultAPIAddr,
		LogLevel:          defaultLogLevel,
	}
}

// Load reads the config file at path, falling back to defaults when it is
// missing. The format is chosen by extension: .yaml and .yml are YAML,
// anything else is TOML. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func merge(cfg *Config, raw fileConfig) error {
	setString(&cfg.ServerURL, raw.ServerURL)
	setString(&cfg.StoreDriver, raw.StoreDriver)
	setString(&cfg.StoreDSN, raw.StoreDSN)
	setString(&cfg.StoreNamespace, raw.StoreNamespace)
	setString(&cfg.APIAddr, raw.APIAddr)
	setString(&cfg.LogLevel, raw.LogLevel)
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if cfg.StoreDriver == "sqlite" {
		cfg.StoreDSN = mustExpand(cfg.StoreDSN)
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"countdown_interval", raw.CountdownInterval, &cfg.CountdownInterval},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.value)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.StoreDriver = "postgres"
		cfg.StoreDSN = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid server_url scheme: %q", u.Scheme)
	}
	switch c.StoreDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("invalid store_driver: %q", c.StoreDriver)
	}
	if c.StoreDriver != "memory" && strings.TrimSpace(c.StoreDSN) == "" {
		return fmt.Errorf("store_dsn is required for %s", c.StoreDriver)
	}
	if c.RequestTimeout <= 0 || c.PollInterval <= 0 || c.CountdownInterval <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("cache_dir is required")
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func defaultNamespace() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}
	return host
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
