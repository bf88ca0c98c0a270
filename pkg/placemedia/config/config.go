package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placepix/placemedia/pkg/placemedia"
	repomemory "github.com/placepix/placemedia/pkg/placemedia/repo/memory"
	repopg "github.com/placepix/placemedia/pkg/placemedia/repo/postgres"
	memorystorage "github.com/placepix/placemedia/pkg/placemedia/storage/memory"
	s3storage "github.com/placepix/placemedia/pkg/placemedia/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "8080",
		Environment:       "development",
		DatabaseType:      "memory",
		StorageType:       "memory",
		PresignTTLSeconds: 300,
	}
}

// ServerConfig represents server configuration for the placemedia service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// Upload grant lifetime in seconds
	PresignTTLSeconds int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}

	if c.StorageType == "s3" && c.S3.Bucket == "" {
		return errors.New("s3 bucket is required when using s3 storage")
	}

	if c.PresignTTLSeconds <= 0 {
		return errors.New("presign ttl must be positive")
	}

	return nil
}

// BuildService creates a placemedia.Service from the server configuration.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (placemedia.Service, error) {
	var repo placemedia.Repository
	switch c.DatabaseType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		repo = repopg.NewWithPool(pool)
	default:
		repo = repomemory.New()
	}

	var store placemedia.BlobStore
	switch c.StorageType {
	case "s3":
		s3Store, err := s3storage.New(c.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to build s3 storage: %w", err)
		}
		store = s3Store
	default:
		store = memorystorage.New()
	}

	return placemedia.New(
		placemedia.WithRepository(repo),
		placemedia.WithBlobStore(store),
		placemedia.WithLogger(logger),
		placemedia.WithPresignTTL(time.Duration(c.PresignTTLSeconds)*time.Second),
	)
}
