package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Objects above this size go through the multipart uploader instead of a
// single PutObject
const minMultipartSize = 12 << 20

type S3Store struct {
	c      *s3.Client
	bucket *string
}

// NewS3Store builds the client from the aws.* config section and probes
// the bucket so a typo'd name fails at startup instead of on the first
// upload.
func NewS3Store(ctx context.Context) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("aws.region")

		// Set for S3-compatible providers (R2, Spaces, MinIO)
		if endpoint := viper.GetString("aws.endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Store{
		c:      client,
		bucket: bucket,
	}, nil
}

func (s *S3Store) Write(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	var err error
	if len(data) > minMultipartSize {
		uploader := manager.NewUploader(s.c, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = s.c.PutObject(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3, %w", key, err)
	}

	zap.L().Debug("Artifact uploaded", zap.String("key", key), zap.Int("size", len(data)))

	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.c.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3, %w", key, err)
	}

	zap.L().Debug("Artifact deleted", zap.String("key", key))

	return nil
}
