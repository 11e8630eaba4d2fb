package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// signedURLTTL is the lifetime of presigned object URLs. Seven days is the
// S3 protocol maximum for presigned requests.
const signedURLTTL = 7 * 24 * time.Hour

type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type s3Storage struct {
	opts S3Options

	mu     sync.Mutex
	client *minio.Client
}

// NewS3Storage returns an S3-compatible object storage backend. The client
// and bucket are established lazily on first use and cached for the life of
// the process.
func NewS3Storage(opts S3Options) ObjectStorage {
	return &s3Storage{opts: opts}
}

func (s *s3Storage) getClient(ctx context.Context) (*minio.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	var creds *credentials.Credentials
	if s.opts.AccessKey != "" {
		creds = credentials.NewStaticV4(s.opts.AccessKey, s.opts.SecretKey, "")
	} else {
		creds = credentials.NewStaticV4("", "", "")
	}

	client, err := minio.New(s.opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: s.opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, s.opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", s.opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			// A concurrent caller may have created it between the two calls.
			switch minio.ToErrorResponse(err).Code {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			default:
				return nil, fmt.Errorf("create bucket %s: %w", s.opts.Bucket, err)
			}
		}
	}

	s.client = client
	return client, nil
}

func (s *s3Storage) Upload(ctx context.Context, content []byte, filename, folder string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	objectKey := folder + "/" + filename
	_, err = client.PutObject(ctx, s.opts.Bucket, objectKey, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: MimeTypeFor(FileExtension(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	return objectKey, nil
}

func (s *s3Storage) Delete(ctx context.Context, storagePath string) (bool, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return false, err
	}

	if _, err := client.StatObject(ctx, s.opts.Bucket, storagePath, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", storagePath, err)
	}

	if err := client.RemoveObject(ctx, s.opts.Bucket, storagePath, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("remove object %s: %w", storagePath, err)
	}
	return true, nil
}

// GetURL returns a presigned, time-limited URL when signing credentials are
// configured, falling back to the bare object URL otherwise.
func (s *s3Storage) GetURL(storagePath string) string {
	if s.opts.AccessKey == "" {
		return s.bareURL(storagePath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := s.getClient(ctx)
	if err != nil {
		return s.bareURL(storagePath)
	}

	signed, err := client.PresignedGetObject(ctx, s.opts.Bucket, storagePath, signedURLTTL, url.Values{})
	if err != nil {
		return s.bareURL(storagePath)
	}
	return signed.String()
}

func (s *s3Storage) bareURL(storagePath string) string {
	scheme := "http"
	if s.opts.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.opts.Endpoint, s.opts.Bucket, storagePath)
}

func (s *s3Storage) Kind() StorageKind {
	return StorageS3
}
