// Package storage archives rendered exports in S3-compatible object storage.
package storage

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/erp/fincore/internal/infrastructure/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultLinkTTL is how long download links stay valid unless configured.
const DefaultLinkTTL = 15 * time.Minute

var ErrEmptyKey = errors.New("storage: empty object key")

// S3Archive keeps export files in one bucket of AWS S3, MinIO or RustFS
// and presigns downloads of them.
type S3Archive struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	log     *zap.Logger
}

// NewS3Archive builds the client from cfg with static credentials. A custom
// endpoint without a scheme is taken as https.
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*S3Archive, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cmp.Or(cfg.Region, "us-east-1")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.PresignExpires
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &S3Archive{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		ttl:     ttl,
		log:     log.Named("archive").With(zap.String("bucket", cfg.Bucket)),
	}, nil
}

func checkConfig(cfg config.StorageConfig) error {
	var err error
	if cfg.Bucket == "" {
		err = multierr.Append(err, errors.New("bucket is required"))
	}
	if cfg.AccessKeyID == "" {
		err = multierr.Append(err, errors.New("access key is required"))
	}
	if cfg.SecretKey == "" {
		err = multierr.Append(err, errors.New("secret key is required"))
	}
	if err != nil {
		return fmt.Errorf("invalid storage configuration: %w", err)
	}
	return nil
}

func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket when the backend reports it missing.
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	switch {
	case err == nil:
		return nil
	case !bucketMissing(err):
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	a.log.Info("Creating export archive bucket")
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func bucketMissing(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "NotFound" || code == "NoSuchBucket"
}

// Put stores data under key.
func (a *S3Archive) Put(ctx context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("private, no-store"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	a.log.Debug("Export archived", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// PresignDownload signs a GET of key that saves as fileName. A non-positive
// ttl uses the configured one.
func (a *S3Archive) PresignDownload(ctx context.Context, key, fileName string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = a.ttl
	}
	input := &s3.GetObjectInput{Bucket: aws.String(a.bucket), Key: aws.String(key)}
	if fileName != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", fileName))
	}
	signed, err := a.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return signed.URL, time.Now().Add(ttl), nil
}
