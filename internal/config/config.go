package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Defaults applied by Validate when fields are omitted.
const (
	DefaultVersion    = "1.0"
	DefaultFilePath   = "drey.json"
	DefaultProfile    = "default"
	DefaultRedisAddr  = "localhost:6379"
	DefaultMaxHistory = 50
	DefaultListenAddr = ":8080"
	DefaultBoardName  = "My Tasks"
	DefaultBoardColor = "#4a90d9"
)

// Config represents the top-level drey.yml configuration.
type Config struct {
	Version string        `yaml:"version"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Board   BoardConfig   `yaml:"board,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Backend string      `yaml:"backend,omitempty"` // "file" or "redis"
	Path    string      `yaml:"path,omitempty"`    // file backend: JSON document path
	Profile string      `yaml:"profile,omitempty"` // redis backend: key namespace
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig carries connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// HistoryConfig bounds the undo/redo timeline.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries,omitempty"` // Default: 50
}

// BoardConfig controls the board scaffolded by `drey init`.
type BoardConfig struct {
	DefaultName  string `yaml:"default_name,omitempty"`
	DefaultColor string `yaml:"default_color,omitempty"`
}

// ServerConfig controls `drey serve`.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: DefaultVersion}
	// Validate cannot fail on a config that only carries the version.
	_ = cfg.Validate()
	return cfg
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted fields.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != DefaultVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, DefaultVersion)
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			c.Storage.Path = DefaultFilePath
		}
	case BackendRedis:
		if c.Storage.Profile == "" {
			c.Storage.Profile = DefaultProfile
		}
		if c.Storage.Redis.Addr == "" {
			c.Storage.Redis.Addr = DefaultRedisAddr
		}
		if c.Storage.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db must be >= 0, got %d", c.Storage.Redis.DB)
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (must be %q or %q)",
			c.Storage.Backend, BackendFile, BackendRedis)
	}

	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = DefaultMaxHistory
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be >= 1, got %d", c.History.MaxEntries)
	}

	if c.Board.DefaultName == "" {
		c.Board.DefaultName = DefaultBoardName
	}
	if c.Board.DefaultColor == "" {
		c.Board.DefaultColor = DefaultBoardColor
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddr
	}

	return nil
}

// Load reads and validates drey.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Write serializes the configuration to drey.yml at the specified path.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
