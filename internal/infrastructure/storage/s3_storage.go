package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/metrics"
)

const backendS3 = "s3"

var errStorageDisabled = errors.New("photo storage backend is not configured; set PHOTO_S3_* to enable uploads")

// S3Storage keeps canonical images as objects in an S3-compatible bucket.
type S3Storage struct {
	bucket   string
	prefix   string
	client   *s3.Client
	log      zerolog.Logger
	disabled bool
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket: strings.TrimSpace(cfg.S3Bucket),
		prefix: normalizePrefix(cfg.S3Prefix),
		log:    logger,
	}

	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("PHOTO_S3_BUCKET or credentials are not set; photo uploads will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	logger.Info().
		Str("bucket", storage.bucket).
		Str("prefix", storage.prefix).
		Msg("s3 storage initialized")
	return storage, nil
}

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return errStorageDisabled
	}
	return nil
}

// Backend names the storage implementation.
func (s *S3Storage) Backend() string {
	return backendS3
}

func (s *S3Storage) key(filename string) (string, error) {
	if err := domain.ValidateFilename(filename); err != nil {
		return "", err
	}
	return s.prefix + filename, nil
}

// Put uploads data in a single PutObject call; S3 never exposes partial objects.
func (s *S3Storage) Put(ctx context.Context, filename string, data []byte) (err error) {
	start := time.Now()
	defer func() { s.record("put", err, start) }()

	if err := s.ensureEnabled(); err != nil {
		return err
	}
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(detectContentTypeFromPath(filename)),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Exists reports whether filename is stored.
func (s *S3Storage) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := s.Stat(ctx, filename)
	if errors.Is(err, domain.ErrImageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stat issues a HeadObject. S3 keeps no creation time, so both timestamps
// carry LastModified.
func (s *S3Storage) Stat(ctx context.Context, filename string) (img domain.StoredImage, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, domain.ErrImageNotFound) {
			s.record("stat", nil, start)
			return
		}
		s.record("stat", err, start)
	}()

	if err := s.ensureEnabled(); err != nil {
		return domain.StoredImage{}, err
	}
	key, err := s.key(filename)
	if err != nil {
		return domain.StoredImage{}, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return domain.StoredImage{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, filename)
		}
		return domain.StoredImage{}, fmt.Errorf("head object %s: %w", key, err)
	}

	img = domain.StoredImage{
		Filename:    filename,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		img.CreatedAt = out.LastModified.UTC()
		img.ModifiedAt = out.LastModified.UTC()
	}
	return img, nil
}

// Open streams the object body.
func (s *S3Storage) Open(ctx context.Context, filename string) (body io.ReadCloser, img domain.StoredImage, err error) {
	start := time.Now()
	defer func() { s.record("get", err, start) }()

	if err := s.ensureEnabled(); err != nil {
		return nil, domain.StoredImage{}, err
	}
	key, err := s.key(filename)
	if err != nil {
		return nil, domain.StoredImage{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, domain.StoredImage{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, filename)
		}
		return nil, domain.StoredImage{}, fmt.Errorf("get object %s: %w", key, err)
	}

	img = domain.StoredImage{
		Filename:    filename,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		img.CreatedAt = out.LastModified.UTC()
		img.ModifiedAt = out.LastModified.UTC()
	}
	return out.Body, img, nil
}

// Delete removes the object. S3 reports success for absent keys.
func (s *S3Storage) Delete(ctx context.Context, filename string) (err error) {
	start := time.Now()
	defer func() { s.record("delete", err, start) }()

	if err := s.ensureEnabled(); err != nil {
		return err
	}
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Storage) record(operation string, err error, start time.Time) {
	metrics.RecordStorageOperation(backendS3, operation, metrics.StatusLabel(err), time.Since(start).Seconds())
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
