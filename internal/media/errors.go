package media

import "errors"

var (
	// ErrNotFound means the referenced catalog id does not exist.
	ErrNotFound = errors.New("media asset not found")

	// ErrUnsupportedMediaType means the file extension is not in the
	// allow-list. Rejected before any hashing or I/O.
	ErrUnsupportedMediaType = errors.New("file type not allowed")

	// ErrPayloadTooLarge means the content exceeds the configured maximum.
	ErrPayloadTooLarge = errors.New("file too large")

	// ErrEmptyContent means the upload carried no bytes.
	ErrEmptyContent = errors.New("file content required")

	// ErrStorageUnavailable means a backend upload/delete/URL call failed
	// or timed out. Never retried here; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage backend unavailable")

	// ErrDuplicateHash is the repository's translation of a uniqueness
	// violation on content_hash. The ingestion service recovers from it by
	// re-reading the winning row; it is never returned to callers.
	ErrDuplicateHash = errors.New("content hash already exists")
)
