package media

import (
	"context"
	"fmt"

	"github.com/aisanjeev/globaleventstravel/internal/cfg"
)

// ObjectStorage persists raw asset bytes. Implementations must tolerate
// repeated calls: Upload may be retried by callers after transient failures
// and Delete reports absence as (false, nil) rather than an error.
type ObjectStorage interface {
	// Upload persists content under folder/filename and returns the
	// backend-relative storage path.
	Upload(ctx context.Context, content []byte, filename, folder string) (string, error)

	// Delete removes the object. It returns false with a nil error when the
	// object was already absent, so deletion is idempotent.
	Delete(ctx context.Context, storagePath string) (bool, error)

	// GetURL produces a URL a client can fetch the object from. Cloud
	// backends may return a signed, time-limited URL.
	GetURL(storagePath string) string

	// Kind identifies the backend in catalog rows.
	Kind() StorageKind
}

// NewStorage selects the backend from configuration.
func NewStorage(conf cfg.Config) (ObjectStorage, error) {
	switch StorageKind(conf.StorageKind) {
	case StorageS3:
		return NewS3Storage(S3Options{
			Endpoint:  conf.S3Endpoint,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			UseSSL:    conf.S3UseSSL,
			Bucket:    conf.S3Bucket,
		}), nil
	case StorageLocal, "":
		return NewLocalStorage(conf.LocalUploadDir)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", conf.StorageKind)
	}
}
