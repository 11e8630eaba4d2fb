package media

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StorageKind identifies which backend persisted an asset's bytes.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
	StorageS3    StorageKind = "s3"
)

// DefaultFolder is used when an upload does not specify a folder.
const DefaultFolder = "general"

// TagList is an unordered set of free-text labels stored as a JSON array
// in a single text column.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported tags column type %T", value)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(t))
}

// Contains reports whether the list carries the given tag.
func (t TagList) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

// MediaAsset is the catalog row for one distinct piece of content.
// ContentHash is unique across the catalog: repeated uploads of identical
// bytes map onto the same row.
type MediaAsset struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	ContentHash      string      `json:"hash" gorm:"column:content_hash;type:varchar(64);not null;uniqueIndex"`
	StoredFilename   string      `json:"filename" gorm:"type:varchar(255);not null"`
	OriginalFilename string      `json:"original_filename" gorm:"type:varchar(255);not null"`
	URL              string      `json:"url" gorm:"type:varchar(500);not null"`
	SizeBytes        int64       `json:"size" gorm:"not null"`
	MimeType         string      `json:"mime_type" gorm:"type:varchar(100);not null;index"`
	Folder           string      `json:"folder" gorm:"type:varchar(100);not null;default:'general';index"`
	Tags             TagList     `json:"tags" gorm:"type:text"`
	StorageBackend   StorageKind `json:"storage_type" gorm:"type:varchar(20);not null"`
	StoragePath      string      `json:"storage_path" gorm:"type:varchar(500);not null"`
	AltText          string      `json:"alt_text,omitempty" gorm:"type:varchar(255)"`
	Caption          string      `json:"caption,omitempty" gorm:"type:text"`
	CreatedAt        time.Time   `json:"created_at" gorm:"not null;index"`
	UpdatedAt        time.Time   `json:"updated_at" gorm:"not null"`
}

func (MediaAsset) TableName() string {
	return "media"
}

// TagCount is one entry of the tag usage aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// FolderCount is one entry of the folder usage aggregation.
type FolderCount struct {
	Folder string `json:"folder"`
	Count  int64  `json:"count"`
}
