package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/okian/speechrate/pkg/metrics"
)

// S3Config locates the bucket reports are uploaded to.
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// IsConfigured reports whether enough is set to upload.
func (c S3Config) IsConfigured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// S3 uploads documents to an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 sink. A custom endpoint switches to path-style
// addressing for MinIO/R2-style services. httpClient may be nil.
func NewS3(cfg S3Config, httpClient *http.Client) (*S3, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: s3 bucket and credentials are required", ErrNotConfigured)
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	options := []func(*s3.Options){
		func(o *s3.Options) {
			o.Credentials = creds
			o.Region = region
		},
	}
	if cfg.Endpoint != "" {
		options = append(options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	if httpClient != nil {
		options = append(options, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return &S3{
		client: s3.New(s3.Options{}, options...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Key returns the object key for name.
func (s *S3) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Publish uploads body as prefix/name.
func (s *S3) Publish(ctx context.Context, name string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(name)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		metrics.RecordPublishError("s3")
		return fmt.Errorf("upload %s: %w", s.Key(name), err)
	}
	return nil
}
