package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Environment variable mapping:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
//	DATABASE_URL - Connection string. "postgresql://..." selects the
//	               postgres repository; empty or "memory" selects the
//	               in-memory repository.
//
//	STORAGE_URL - Storage connection string (one of):
//	              - "memory://" - In-memory storage (default)
//	              - "s3://bucket?region=us-east-1" - S3 storage
//	S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY,
//	S3_PUBLIC_BASE_URL, S3_USE_PATH_STYLE - S3 details
//
//	PRESIGN_TTL_SECONDS - Upload grant lifetime (default: 300)
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "PRESIGN_TTL_SECONDS"); ok && v != "" {
			ttl, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid PRESIGN_TTL_SECONDS: %w", err)
			}
			c.PresignTTLSeconds = ttl
		}

		return nil
	}
}

func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")

	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")

	if !hasURL || storageURL == "" || strings.HasPrefix(storageURL, "memory://") {
		c.StorageType = "memory"
		return nil
	}

	if strings.HasPrefix(storageURL, "s3://") {
		c.StorageType = "s3"
		rest := strings.TrimPrefix(storageURL, "s3://")
		bucket, query, _ := strings.Cut(rest, "?")
		c.S3.Bucket = bucket
		for _, pair := range strings.Split(query, "&") {
			k, v, ok := strings.Cut(pair, "=")
			if ok && k == "region" {
				c.S3.Region = v
			}
		}

		if v, ok := lookupEnv(prefix, "S3_ENDPOINT"); ok {
			c.S3.Endpoint = v
		}
		if v, ok := lookupEnv(prefix, "S3_ACCESS_KEY_ID"); ok {
			c.S3.AccessKeyID = v
		}
		if v, ok := lookupEnv(prefix, "S3_SECRET_ACCESS_KEY"); ok {
			c.S3.SecretAccessKey = v
		}
		if v, ok := lookupEnv(prefix, "S3_PUBLIC_BASE_URL"); ok {
			c.S3.PublicBaseURL = v
		}
		if v, ok := lookupEnv(prefix, "S3_USE_PATH_STYLE"); ok {
			usePathStyle, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid S3_USE_PATH_STYLE: %w", err)
			}
			c.S3.UsePathStyle = usePathStyle
		}
		return nil
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://' or 's3://bucket')", storageURL)
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix != "" {
		if v, ok := os.LookupEnv(prefix + key); ok {
			return v, true
		}
	}
	return os.LookupEnv(key)
}
