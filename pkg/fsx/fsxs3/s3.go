// Package fsxs3 implements fsx.FileSystem on top of Amazon S3.
package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hirelens/hirelens/pkg/fsx"
)

// S3FileSystem stores blobs under bucket with an optional key prefix.
type S3FileSystem struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3FileSystem wraps an existing S3 client.
func NewS3FileSystem(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3FileSystem) key(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

func (s *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fsx.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	return s.WriteFileStream(ctx, p, bytes.NewReader(data))
}

func (s *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
		Body:   r,
	})
	return err
}

func (s *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fsx.ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	return err
}

func (s *S3FileSystem) Join(parts ...string) string {
	return path.Join(parts...)
}
