// Package mirror implements best-effort copy targets for exported
// snapshot files.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror uploads exported snapshot files to an S3 bucket.
type S3Mirror struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// S3Options configures the mirror. AccessKey/SecretKey are optional; when
// empty the SDK's default credential chain applies. Endpoint is for
// S3-compatible stores.
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func NewS3Mirror(ctx context.Context, opts S3Options) (*S3Mirror, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 mirror requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
	}, nil
}

// Upload writes content under prefix/name, overwriting any previous object.
func (m *S3Mirror) Upload(ctx context.Context, name string, content []byte) error {
	key := name
	if m.prefix != "" {
		key = path.Join(m.prefix, name)
	}

	_, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
