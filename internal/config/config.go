// Package config loads btview settings from an optional YAML file. Values
// not present in the file keep their defaults; command line flags override
// both.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/btlib/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "btview.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the full btview configuration.
type Config struct {
	LogLevel  string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string         `mapstructure:"log_format" yaml:"log_format"`
	Store     StoreConfig    `mapstructure:"store" yaml:"store"`
	Coverage  CoverageConfig `mapstructure:"coverage" yaml:"coverage"`
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
}

// StoreConfig selects where recorded telemetry lives.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the directory (file) or database file (sqlite).
	Path     string        `mapstructure:"path" yaml:"path"`
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Lock enables cross-process locking around merges (file and redis).
	Lock    bool          `mapstructure:"lock" yaml:"lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	// EncryptionKey is a base64 AES-256 key; when set, records are sealed at rest.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	// FallbackKeys open records sealed with retired keys.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys,omitempty"`
}

// Encryption decodes the configured keys. It returns nil when encryption is
// disabled.
func (c StoreConfig) Encryption() (*middleware.EncryptionConfig, error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, errors.New("fallback_keys need an encryption_key")
		}
		return nil, nil
	}
	active, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption_key: %w", err)
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	return enc, nil
}

type CoverageConfig struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Backend: BackendMemory,
			Addr:    "localhost:6379",
			LockTTL: 30 * time.Second,
		},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads path on top of the defaults. An empty path tries DefaultFile
// and silently falls back to the defaults when it does not exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config text on top of the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := c.Store.Encryption(); err != nil {
		return err
	}
	if c.Coverage.Threshold < 0 || c.Coverage.Threshold > 1 {
		return fmt.Errorf("coverage threshold must be within [0, 1], got %v", c.Coverage.Threshold)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
