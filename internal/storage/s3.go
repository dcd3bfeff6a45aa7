package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
)

// S3Store uploads to a bucket on AWS or an S3 compatible service.
type S3Store struct {
	client  *s3.S3
	bucket  string
	baseURL string
}

func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is required for the s3 storage driver")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(cfg.S3PathStyle),
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}
	if cfg.S3AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "s3 session")
	}
	return &S3Store{
		client:  s3.New(sess),
		bucket:  cfg.S3Bucket,
		baseURL: publicBase(cfg),
	}, nil
}

// publicBase prefers the configured public URL, then the custom endpoint,
// then the AWS virtual-hosted address.
func publicBase(cfg config.StorageConfig) string {
	if strings.HasPrefix(cfg.PublicBaseURL, "http") {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}

func (s *S3Store) Save(ctx context.Context, folder, ext, contentType string, r io.Reader, size int64) (string, error) {
	key := objectKey(folder, ext)
	body, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(io.LimitReader(r, size))
		if err != nil {
			return "", errors.Wrap(err, "buffer upload")
		}
		body = bytes.NewReader(buf)
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrap(err, "s3 put object")
	}
	return s.baseURL + "/" + key, nil
}
