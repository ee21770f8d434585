package clients

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ClientInterface defines the profile image operations on S3
type S3ClientInterface interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Client wraps the AWS S3 client for one bucket
type S3Client struct {
	svc           *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewS3Client creates a new S3 client instance for bucket
func NewS3Client(opts Options, bucket string) S3ClientInterface {
	svc := s3.NewFromConfig(loadAWSConfig(opts), func(o *s3.Options) {
		// LocalStack only serves path-style requests
		o.UsePathStyle = opts.IsLocal
	})

	return &S3Client{
		svc:           svc,
		presignClient: s3.NewPresignClient(svc),
		bucket:        bucket,
	}
}

// GenerateUploadURL creates a presigned URL for uploading a file to S3
func (client *S3Client) GenerateUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	presignResult, err := client.presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}

	return presignResult.URL, nil
}

// DeleteObject deletes an object from S3
func (client *S3Client) DeleteObject(ctx context.Context, key string) error {
	_, err := client.svc.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	})

	return err
}
