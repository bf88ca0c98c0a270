package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/placepix/placemedia/pkg/placemedia"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// PublicBaseURL overrides how durable read URLs are built, e.g. a
	// CDN domain in front of the bucket. When empty, URLs point at the
	// bucket directly.
	PublicBaseURL string
}

// Backend is an S3-compatible implementation of the placemedia.BlobStore interface
type Backend struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	config        Config
}

// New creates a new S3-compatible storage backend
func New(config Config) (placemedia.BlobStore, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Backend{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        config.Bucket,
		config:        config,
	}, nil
}

// IssueUploadURL returns a presigned PUT URL bound to the given content
// type, expiring after ttl.
func (b *Backend) IssueUploadURL(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}

	result, err := b.presignClient.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return result.URL, nil
}

// PublicURL returns the durable public read URL for objectKey. Unlike
// upload grants, read URLs never expire; the bucket (or the CDN in front
// of it) is expected to allow public reads of these keys.
func (b *Backend) PublicURL(ctx context.Context, objectKey string) (string, error) {
	if b.config.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(b.config.PublicBaseURL, "/"), objectKey), nil
	}
	if b.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(b.config.Endpoint, "/"), b.bucket, objectKey), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.config.Region, objectKey), nil
}

// Delete deletes the object from S3
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
