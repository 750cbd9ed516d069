package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"archview/internal/archive"
	"archview/internal/config"
)

// S3Client is the subset of the S3 API the store's transfer managers use.
type S3Client interface {
	manager.DownloadAPIClient
	manager.UploadAPIClient
}

// S3Store keeps blobs as objects in one bucket, under
// <prefix>/documents/<docID> and <prefix>/images/<imageKey>.
type S3Store struct {
	bucket      string
	prefix      string
	sentinelKey int

	downloader *manager.Downloader
	uploader   *manager.Uploader
}

// NewS3Store creates a store over an existing client.
func NewS3Store(client S3Client, bucket, prefix string, sentinelKey int) *S3Store {
	return &S3Store{
		bucket:      bucket,
		prefix:      prefix,
		sentinelKey: sentinelKey,
		downloader:  manager.NewDownloader(client),
		uploader:    manager.NewUploader(client),
	}
}

// NewS3StoreFromConfig builds an S3 client from the default AWS configuration,
// overridden by the region, endpoint and static credentials in cfg.
func NewS3StoreFromConfig(ctx context.Context, cfg config.BlobsConfig) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3PathStyle
	})

	return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, cfg.SentinelImageKey), nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// get downloads one object. A missing object returns ok == false.
func (s *S3Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func (s *S3Store) PutDocument(ctx context.Context, docID int, body []byte) error {
	if err := s.put(ctx, documentKey(docID), body); err != nil {
		return fmt.Errorf("uploading document %d: %w", docID, err)
	}
	return nil
}

func (s *S3Store) PutImage(ctx context.Context, key int, data []byte) error {
	if err := s.put(ctx, imageKey(key), data); err != nil {
		return fmt.Errorf("uploading image %d: %w", key, err)
	}
	return nil
}

func (s *S3Store) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	body, ok, err := s.get(ctx, documentKey(docID))
	if err != nil {
		return nil, fmt.Errorf("downloading document %d: %w", docID, err)
	}
	if !ok {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	return body, nil
}

// FetchImages downloads each key in turn. Missing objects are skipped.
func (s *S3Store) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	out := make(map[int][]byte, len(keys))
	for _, k := range keys {
		data, ok, err := s.get(ctx, imageKey(k))
		if err != nil {
			return nil, fmt.Errorf("downloading image %d: %w", k, err)
		}
		if ok {
			out[k] = data
		}
	}
	return out, nil
}

func (s *S3Store) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	data, ok, err := s.get(ctx, imageKey(s.sentinelKey))
	if err != nil {
		return nil, fmt.Errorf("downloading sentinel image: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("sentinel image %d: %w", s.sentinelKey, ErrImageNotFound)
	}
	return data, nil
}

// isNotFound recognizes a missing object, including the generic error codes
// S3 compatible servers answer with.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Compile-time checks
var (
	_ Store    = (*S3Store)(nil)
	_ S3Client = (*s3.Client)(nil)
)
