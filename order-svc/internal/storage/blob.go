package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the subset of *s3.Client the blob store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3BlobStore struct {
	Client  ObjectPutter
	Bucket  string
	BaseURL string
}

func NewS3BlobStore(client ObjectPutter, bucket, baseURL string) *S3BlobStore {
	return &S3BlobStore{Client: client, Bucket: bucket, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *S3BlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.BaseURL + "/" + key, nil
}

// LocalBlobStore keeps uploads on disk for setups without a bucket.
type LocalBlobStore struct {
	Dir     string
	BaseURL string
}

func NewLocalBlobStore(dir, baseURL string) *LocalBlobStore {
	return &LocalBlobStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalBlobStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}
