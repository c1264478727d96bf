package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/domsync/internal/errors"
)

// Store persists rendered snapshots.
type Store interface {
	// Put stores body under name and returns where it was written.
	Put(ctx context.Context, name string, body []byte) (string, error)
}

// FileStore writes snapshots into a directory.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Put writes body to Dir/name, creating Dir if needed.
func (s *FileStore) Put(_ context.Context, name string, body []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.New("DS502").WithDetailf("create %s", s.Dir).Wrap(err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", errors.New("DS502").WithDetailf("write %s", path).Wrap(err)
	}
	return path, nil
}

// PutObjectAPI is the part of *s3.Client the S3Store uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads snapshots to an S3 bucket.
//
// Example usage:
//
//	client, err := snapshot.NewS3Client(ctx, snapshot.S3Options{Region: "us-east-1"})
//	store := snapshot.NewS3Store(client, "my-bucket", "snapshots/")
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Store creates an S3Store writing keys under prefix.
func NewS3Store(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads body as text/html and returns its s3:// location.
func (s *S3Store) Put(ctx context.Context, name string, body []byte) (string, error) {
	key := s.prefix + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"snapshot-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", errors.New("DS502").WithDetailf("s3://%s/%s", s.bucket, key).Wrap(err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region overrides the region from the shared AWS config.
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string

	// PathStyle addresses buckets by path instead of virtual host.
	PathStyle bool
}

// NewS3Client creates an S3 client from the SDK's default config chain, so
// shared profiles and instance roles work as they do for the AWS CLI.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New("DS502").WithDetail("load AWS config").Wrap(err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}
