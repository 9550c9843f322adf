package storage

import (
	"context"
	"fmt"
)

// Backend type identifiers accepted in configuration.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeNull  = "null"
)

// BackendConfig selects and configures one storage backend.
type BackendConfig struct {
	Type string   `yaml:"type"` // "local", "s3" or "null"
	Dir  string   `yaml:"dir"`  // local backend root directory
	S3   S3Config `yaml:"s3"`
}

// New builds a root Store from config.
func New(ctx context.Context, cfg BackendConfig) (Store, error) {
	switch cfg.Type {
	case TypeLocal:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("local storage: dir is required")
		}
		return NewLocalStore(cfg.Dir), nil
	case TypeS3:
		return NewS3Store(ctx, cfg.S3)
	case TypeNull, "":
		return NewNullStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend type %q", cfg.Type)
	}
}
