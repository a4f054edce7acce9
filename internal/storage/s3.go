package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config describes the bucket media is written to and how it is addressed publicly.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// PublicBaseURL, when set, prefixes object keys in returned URLs (a CDN for example).
	PublicBaseURL string
	// PublicRead uploads objects with the public-read canned ACL.
	PublicRead bool
}

// S3Service uploads media to Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
}

func NewS3Service(client *s3.Client, cfg S3Config) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}
}

func (s *S3Service) Upload(ctx context.Context, body io.Reader, objectPath string, opts UploadOptions) (UploadResult, error) {
	if s.cfg.Bucket == "" {
		return UploadResult{}, fmt.Errorf("storage bucket is required")
	}
	key, err := cleanKey(objectPath)
	if err != nil {
		return UploadResult{}, err
	}

	if !opts.Upsert {
		exists, err := s.exists(ctx, key)
		if err != nil {
			return UploadResult{}, err
		}
		if exists {
			return UploadResult{}, fmt.Errorf("upload %s: %w", key, ErrObjectExists)
		}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if s.cfg.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return UploadResult{Path: key, PublicURL: PublicURL(s.cfg, key)}, nil
}

func (s *S3Service) Delete(ctx context.Context, objectPath string) error {
	if s.cfg.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	key, err := cleanKey(objectPath)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head object %s: %w", key, err)
}

var _ Service = (*S3Service)(nil)

// PublicURL builds the address clients fetch an object from.
func PublicURL(cfg S3Config, key string) string {
	escaped := escapeKey(key)
	if base := strings.TrimRight(cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	if endpoint := strings.TrimRight(cfg.Endpoint, "/"); endpoint != "" {
		// custom endpoints are addressed path-style
		return endpoint + "/" + cfg.Bucket + "/" + escaped
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, region, escaped)
}

func cleanKey(p string) (string, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return "", fmt.Errorf("object path is required")
	}
	key := strings.TrimPrefix(path.Clean("/"+trimmed), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return key, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
