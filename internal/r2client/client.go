// Package r2client provides a client for Cloudflare R2 object storage.
// It wraps the AWS S3 SDK to fetch and publish the program catalog,
// compressing documents with zstd on the way up.
package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/klauspost/compress/zstd"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
)

// Config holds R2 client configuration.
type Config struct {
	Endpoint    string // R2 endpoint URL (e.g., https://account-id.r2.cloudflarestorage.com)
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

// Validate reports the first missing field.
func (c Config) Validate() error {
	if c.Endpoint == "" || c.AccessKeyID == "" || c.SecretKey == "" || c.BucketName == "" {
		return errors.New("r2client: all config fields are required")
	}
	return nil
}

// objectAPI is the subset of the S3 client used here.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client provides R2 object storage operations.
type Client struct {
	s3     objectAPI
	bucket string
}

// New creates a new R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for R2
	})

	return &Client{
		s3:     s3Client,
		bucket: cfg.BucketName,
	}, nil
}

// Upload uploads an object to R2.
// Returns the ETag of the uploaded object.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("r2client: upload %q: %w", key, err)
	}
	return trimETag(result.ETag), nil
}

// Download downloads an object from R2.
// Returns the object body and ETag. Caller must close the body.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("r2client: download %q: %w", key, err)
	}
	return result.Body, trimETag(result.ETag), nil
}

// FetchCatalog downloads and decodes the catalog stored at key. The format
// follows the key's extension, e.g. "catalog/courses.json.zst".
func (c *Client) FetchCatalog(ctx context.Context, key string) (*catalog.Catalog, string, error) {
	format, compressed, err := catalog.FormatFromPath(key)
	if err != nil {
		return nil, "", err
	}

	body, etag, err := c.Download(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = body.Close() }()

	cat, err := catalog.Decode(body, format, compressed)
	if err != nil {
		return nil, "", fmt.Errorf("r2client: catalog %q: %w", key, err)
	}
	return cat, etag, nil
}

// PublishCatalog uploads a raw catalog document to key, zstd-compressing it
// when key ends in ".zst". The document is validated first so a broken
// catalog never reaches the bucket.
func (c *Client) PublishCatalog(ctx context.Context, key string, document []byte) (string, error) {
	format, compressed, err := catalog.FormatFromPath(key)
	if err != nil {
		return "", err
	}
	if _, err := catalog.Decode(bytes.NewReader(document), format, false); err != nil {
		return "", fmt.Errorf("r2client: refusing to publish invalid catalog: %w", err)
	}

	body := document
	contentType := "application/json"
	if format == catalog.FormatYAML {
		contentType = "application/yaml"
	}
	if compressed {
		if body, err = Compress(document); err != nil {
			return "", err
		}
		contentType = "application/zstd"
	}
	return c.Upload(ctx, key, bytes.NewReader(body), contentType)
}

// Compress returns data zstd-compressed.
func Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("compress: create encoder: %w", err)
	}
	defer func() { _ = encoder.Close() }()
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, "\"")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("r2client: object not found")
