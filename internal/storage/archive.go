// Package storage archives expired system logs to an S3-compatible bucket
// as gzipped JSON batches.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/pkg/model"
)

const batchExt = ".json.gz"

// S3API is the part of *s3.Client the archive uses.
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

var _ S3API = (*s3.Client)(nil)

// Archive writes and reads system log batches.
type Archive struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchive builds an S3-compatible client for cfg. Returns nil when
// archiving is not configured.
func NewArchive(cfg config.ArchiveConfig) (*Archive, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return NewArchiveWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewArchiveWithClient(client S3API, bucket, prefix string) *Archive {
	if prefix == "" {
		prefix = "system-logs"
	}
	return &Archive{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

func (a *Archive) Prefix() string { return a.prefix }

// EnsureBucket creates the bucket if HeadBucket cannot see it.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return fmt.Errorf("create bucket %s: %w", a.bucket, createErr)
	}
	return nil
}

// KeyForBatch returns the object key of a batch written at, e.g.
// system-logs/2026/02/01/<id>.json.gz.
func KeyForBatch(prefix, batchID string, at time.Time) string {
	return path.Join(prefix, at.UTC().Format("2006/01/02"), batchID+batchExt)
}

// PutBatch uploads entries as one gzipped JSON array and returns its key.
func (a *Archive) PutBatch(ctx context.Context, entries []model.SystemLog) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(entries); err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip batch: %w", err)
	}
	key := KeyForBatch(a.prefix, uuid.NewString(), a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// ObjectInfo describes an archived batch.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// ListObjects lists every batch under prefix, following continuation
// tokens.
func (a *Archive) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if prefix == "" {
		prefix = a.prefix + "/"
	}
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	result := make([]ObjectInfo, 0)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, o := range out.Contents {
			info := ObjectInfo{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
			if o.LastModified != nil {
				info.LastModified = *o.LastModified
			}
			result = append(result, info)
		}
	}
	return result, nil
}

// GetObjectLogs downloads a batch by key and returns its entries.
func (a *Archive) GetObjectLogs(ctx context.Context, key string) ([]model.SystemLog, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	zr, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var entries []model.SystemLog
	if err := json.Unmarshal(decoded, &entries); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return entries, nil
}
