// storage/s3.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Backend stores objects in an S3 bucket. Setting
// METPRODUCTS_S3_ENDPOINT selects an S3-compatible service other than AWS;
// METPRODUCTS_S3_ACCESS_KEY and METPRODUCTS_S3_SECRET_KEY, if set, are used
// instead of the default credential chain.
type S3Backend struct {
	client *s3.Client
	bucket string
}

func NewS3Backend(ctx context.Context, bucket string) (*S3Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := os.Getenv("METPRODUCTS_S3_REGION"); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if key, secret := os.Getenv("METPRODUCTS_S3_ACCESS_KEY"), os.Getenv("METPRODUCTS_S3_SECRET_KEY"); key != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv("METPRODUCTS_S3_ENDPOINT")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{client: client, bucket: bucket}, nil
}

func (s *S3Backend) List(ctx context.Context, prefix string) (map[string]int64, error) {
	prefix, err := Clean(prefix)
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); key != prefix {
				m[key] = aws.ToInt64(obj.Size)
			}
		}
	}
	return m, nil
}

func (s *S3Backend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Backend) put(ctx context.Context, path string, b []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(b),
		ContentType: aws.String(contentType(path)),
	})
	return err
}

func (s *S3Backend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	// Products are small; buffering gives the request a known length.
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), s.put(ctx, path, b)
}

func (s *S3Backend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	var buf bytes.Buffer
	n, err := encodeObject(&buf, object)
	if err != nil {
		return 0, err
	}
	return n, s.put(ctx, path, buf.Bytes())
}

func (s *S3Backend) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	return err
}

func (s *S3Backend) Close() error { return nil }
