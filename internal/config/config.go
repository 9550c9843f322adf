// Package config loads the application configuration: defaults first, then
// config/config.yml, then config/config.local.yml, then environment
// overrides, then validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/thinkoverit/jugalbandi/internal/auth"
	"github.com/thinkoverit/jugalbandi/internal/events"
	"github.com/thinkoverit/jugalbandi/internal/logging"
	"github.com/thinkoverit/jugalbandi/internal/metadata"
	"github.com/thinkoverit/jugalbandi/internal/server"
	"github.com/thinkoverit/jugalbandi/internal/storage"
)

// StorageConfig selects the backend for each storage tier. The index tier
// is where the manifest indexer persists its artifacts.
type StorageConfig struct {
	Local  storage.BackendConfig `yaml:"local"`
	Remote storage.BackendConfig `yaml:"remote"`
	Index  storage.BackendConfig `yaml:"index"`
}

// Config holds the application configuration.
type Config struct {
	Server   server.Config   `yaml:"server"`
	Logging  logging.Config  `yaml:"logging"`
	Storage  StorageConfig   `yaml:"storage"`
	Database metadata.Config `yaml:"database"`
	Auth     auth.Config     `yaml:"auth"`
	Events   events.Config   `yaml:"events"`
}

// Default returns the full default configuration: a local filesystem tier,
// a null remote tier and eventing disabled.
func Default() *Config {
	return &Config{
		Server:  server.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Storage: StorageConfig{
			Local:  storage.BackendConfig{Type: storage.TypeLocal, Dir: "data/local"},
			Remote: storage.BackendConfig{Type: storage.TypeNull},
			Index:  storage.BackendConfig{Type: storage.TypeLocal, Dir: "data/index"},
		},
		Database: metadata.DefaultConfig(),
		Auth:     auth.DefaultConfig(),
		Events:   events.DefaultConfig(),
	}
}

// Load reads the configuration files, applies environment overrides and
// validates the result.
func Load() (*Config, error) {
	cfg := Default()

	loadFile("config/config.yml", cfg)
	loadFile("config/config.local.yml", cfg)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config file unreadable", "file", filename, "error", err)
		}
		return
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config file unparsable", "file", filename, "error", err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("STORAGE_LOCAL_DIR"); v != "" {
		c.Storage.Local.Dir = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.Remote.Type = storage.TypeS3
		c.Storage.Remote.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.Storage.Remote.S3.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Storage.Remote.S3.Endpoint = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Events.Enabled = true
		c.Events.URL = v
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	c.Server.ApplyDefaults()

	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set AUTH_JWT_SECRET)")
	}
	if err := validateBackend("storage.local", c.Storage.Local); err != nil {
		return err
	}
	if err := validateBackend("storage.remote", c.Storage.Remote); err != nil {
		return err
	}
	if err := validateBackend("storage.index", c.Storage.Index); err != nil {
		return err
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}
	return nil
}

func validateBackend(section string, cfg storage.BackendConfig) error {
	switch cfg.Type {
	case storage.TypeLocal:
		if cfg.Dir == "" {
			return fmt.Errorf("%s.dir is required for the local backend", section)
		}
	case storage.TypeS3:
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("%s.s3.bucket is required for the s3 backend", section)
		}
	case storage.TypeNull, "":
	default:
		return fmt.Errorf("%s.type %q is not a known backend", section, cfg.Type)
	}
	return nil
}
