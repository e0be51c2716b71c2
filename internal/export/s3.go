package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/config"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads workbooks to an S3-compatible bucket (AWS, MinIO, R2).
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger arbor.ILogger
}

// NewS3Store loads AWS configuration, preferring static keys when set, and
// points the client at a custom endpoint with path-style addressing when one
// is configured.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger arbor.ILogger) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string, logger arbor.ILogger) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

func (s *S3Store) Name() string { return BackendS3 }

func (s *S3Store) key(p string) string {
	k := strings.TrimPrefix(path.Clean("/"+p), "/")
	if s.prefix == "" {
		return k
	}
	return s.prefix + "/" + k
}

// Dispatch uploads blob as a single PutObject.
func (s *S3Store) Dispatch(ctx context.Context, blob []byte, p string) error {
	key := s.key(p)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(blob),
		ContentLength: aws.Int64(int64(len(blob))),
		ContentType:   aws.String(XLSXContentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", s.bucket, key, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(blob)).Msg("Workbook uploaded")
	return nil
}
