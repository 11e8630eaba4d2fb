package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Fingerprint returns the SHA-256 digest of content as lowercase hex.
// It is the deduplication key of the catalog.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// StoredFilename derives the collision-resistant name used on the storage
// backend: timestamp, a hash prefix and the original extension. Paths built
// from it sort by ingestion time without a second index.
func StoredFilename(originalFilename, contentHash string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	prefix := contentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s_%s%s", now.Format("20060102_150405"), prefix, ext)
}
