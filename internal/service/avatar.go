package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/nutrisnap/backend/config"
)

const avatarURLExpiry = time.Hour

// AvatarStore keeps profile pictures outside the database.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

// S3AvatarStore stores avatars in a private bucket and hands out presigned URLs.
type S3AvatarStore struct {
	s3 *config.S3Config
}

func NewS3AvatarStore(cfg *config.S3Config) *S3AvatarStore {
	return &S3AvatarStore{s3: cfg}
}

func (s *S3AvatarStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := s.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.s3.BucketName),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3AvatarStore) URL(ctx context.Context, key string) (string, error) {
	return s.s3.GeneratePresignedURL(ctx, key, avatarURLExpiry)
}
