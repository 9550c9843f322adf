package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkoverit/jugalbandi/internal/storage"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Auth.Secret = "test-secret"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, storage.TypeLocal, cfg.Storage.Local.Type)
	assert.Equal(t, storage.TypeNull, cfg.Storage.Remote.Type)
	assert.False(t, cfg.Events.Enabled)
	assert.NotEmpty(t, cfg.Database.URL)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"missing auth secret", func(c *Config) { c.Auth.Secret = "" }},
		{"local backend without dir", func(c *Config) { c.Storage.Local.Dir = "" }},
		{"s3 backend without bucket", func(c *Config) {
			c.Storage.Remote = storage.BackendConfig{Type: storage.TypeS3}
		}},
		{"unknown backend type", func(c *Config) { c.Storage.Remote.Type = "ftp" }},
		{"events enabled without url", func(c *Config) {
			c.Events.Enabled = true
			c.Events.URL = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("DATABASE_URL", "postgres://db.internal:5432/prod")
	t.Setenv("STORAGE_LOCAL_DIR", "/srv/collections")
	t.Setenv("S3_BUCKET", "prod-collections")
	t.Setenv("S3_REGION", "eu-west-1")
	t.Setenv("AUTH_JWT_SECRET", "prod-secret")
	t.Setenv("NATS_URL", "nats://nats.internal:4222")

	cfg := Default()
	cfg.applyEnvOverrides()

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "postgres://db.internal:5432/prod", cfg.Database.URL)
	assert.Equal(t, "/srv/collections", cfg.Storage.Local.Dir)
	assert.Equal(t, storage.TypeS3, cfg.Storage.Remote.Type)
	assert.Equal(t, "prod-collections", cfg.Storage.Remote.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Remote.S3.Region)
	assert.Equal(t, "prod-secret", cfg.Auth.Secret)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "nats://nats.internal:4222", cfg.Events.URL)

	require.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	cfg := Default()
	cfg.applyEnvOverrides()
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}
