package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound marks a missing blob, distinct from transport failures.
var ErrObjectNotFound = errors.New("storage: object not found")

// Client is the blob-store surface used by the export and preview paths.
// The export pipeline only ever reads; source diagrams are never mutated.
type Client interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
}

// S3Options configures the S3 client. Endpoint/credentials support
// MinIO-style local stacks; leave them empty to use the default AWS chain.
type S3Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Client implements Client over the AWS SDK
type S3Client struct {
	client *s3.Client
}

// NewS3Client creates an S3-backed blob client
func NewS3Client(ctx context.Context, opts S3Options) (*S3Client, error) {
	if opts.Endpoint != "" {
		client := s3.New(s3.Options{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKey,
				opts.SecretKey,
				"",
			),
			BaseEndpoint: aws.String(opts.Endpoint),
			UsePathStyle: opts.UsePathStyle,
		})
		return &S3Client{client: client}, nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Client{client: s3.NewFromConfig(awsCfg)}, nil
}

// Download fetches an object's bytes; a missing key maps to ErrObjectNotFound
func (c *S3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Upload stores an object (used by the diagram upload tool, not by exports)
func (c *S3Client) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// BucketReader binds a Client to one bucket for read-only consumers.
type BucketReader struct {
	client Client
	bucket string
}

// NewBucketReader creates a reader scoped to a single bucket
func NewBucketReader(client Client, bucket string) *BucketReader {
	return &BucketReader{client: client, bucket: bucket}
}

// Download fetches an object from the bound bucket
func (b *BucketReader) Download(ctx context.Context, key string) ([]byte, error) {
	return b.client.Download(ctx, b.bucket, key)
}
