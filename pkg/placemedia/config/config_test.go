package config

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 300, cfg.PresignTTLSeconds)
}

func TestLoadAppliesOptions(t *testing.T) {
	cfg, err := Load(func(c *ServerConfig) error {
		c.Port = "9090"
		c.PresignTTLSeconds = 60
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 60, cfg.PresignTTLSeconds)
}

func TestLoadPropagatesOptionError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(func(c *ServerConfig) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLoadSkipsNilOptions(t *testing.T) {
	_, err := Load(nil)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() ServerConfig {
		return ServerConfig{
			Port:              "8080",
			DatabaseType:      "memory",
			StorageType:       "memory",
			PresignTTLSeconds: 300,
		}
	}

	tests := []struct {
		name        string
		mutate      func(*ServerConfig)
		expectError bool
	}{
		{"valid config", func(c *ServerConfig) {}, false},
		{"missing port", func(c *ServerConfig) { c.Port = "" }, true},
		{"unknown database type", func(c *ServerConfig) { c.DatabaseType = "sqlite" }, true},
		{"postgres without url", func(c *ServerConfig) { c.DatabaseType = "postgres" }, true},
		{"postgres with url", func(c *ServerConfig) {
			c.DatabaseType = "postgres"
			c.DatabaseURL = "postgresql://localhost/placemedia"
		}, false},
		{"unknown storage type", func(c *ServerConfig) { c.StorageType = "gcs" }, true},
		{"s3 without bucket", func(c *ServerConfig) { c.StorageType = "s3" }, true},
		{"s3 with bucket", func(c *ServerConfig) {
			c.StorageType = "s3"
			c.S3.Bucket = "photos"
		}, false},
		{"zero presign ttl", func(c *ServerConfig) { c.PresignTTLSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	svc, err := cfg.BuildService(context.Background(), slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
