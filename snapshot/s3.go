package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pithecene-io/trolley/iox"
)

// S3Config holds configuration for the S3 snapshot backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("s3 kv: bucket is required")
	}
	return nil
}

// S3KV stores snapshot values as S3 objects. Intended for roaming sessions
// where the snapshot must survive the local machine.
type S3KV struct {
	client *s3.Client
	config S3Config
}

// NewS3KV creates an S3-backed KV.
// Uses the AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3KV(ctx context.Context, cfg S3Config) (*S3KV, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 kv: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3KV{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		config: cfg,
	}, nil
}

// Get implements KV.
func (s *S3KV) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.config.Bucket,
		Key:    &objectKey,
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 kv: get %s: %w", key, err)
	}
	defer iox.DiscardClose(out.Body)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 kv: read %s: %w", key, err)
	}
	return data, nil
}

// Set implements KV.
func (s *S3KV) Set(ctx context.Context, key string, value []byte) error {
	objectKey := s.objectKey(key)
	contentType := "application/msgpack"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.config.Bucket,
		Key:         &objectKey,
		Body:        bytes.NewReader(value),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 kv: put %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *S3KV) Delete(ctx context.Context, key string) error {
	objectKey := s.objectKey(key)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.config.Bucket,
		Key:    &objectKey,
	})
	if err != nil {
		return fmt.Errorf("s3 kv: delete %s: %w", key, err)
	}
	return nil
}

// objectKey joins the configured prefix with the snapshot key.
func (s *S3KV) objectKey(key string) string {
	if s.config.Prefix == "" {
		return key
	}
	return path.Join(s.config.Prefix, key)
}

// Verify S3KV implements KV.
var _ KV = (*S3KV)(nil)
