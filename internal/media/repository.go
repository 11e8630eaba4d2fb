package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchFilter narrows a catalog listing. Zero values mean "no filter".
type SearchFilter struct {
	// Query is matched case-insensitively as a substring of the original
	// filename, alt text or caption.
	Query string
	// Folder is an exact match.
	Folder string
	// Tags match assets whose tag set intersects them (OR semantics).
	Tags []string
	// MimeType is an exact match, or a category prefix match when given as
	// "image/*".
	MimeType string

	Offset int
	Limit  int
}

// Repository is the authoritative catalog store. Create must enforce the
// content_hash uniqueness invariant atomically and report violations as
// ErrDuplicateHash.
type Repository interface {
	Create(ctx context.Context, asset *MediaAsset) error
	GetByID(ctx context.Context, id uuid.UUID) (MediaAsset, error)
	GetByHash(ctx context.Context, contentHash string) (MediaAsset, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns the filtered page newest-first plus the total count of
	// the filtered set before pagination.
	Search(ctx context.Context, filter SearchFilter) ([]MediaAsset, int64, error)
	// FolderCounts aggregates assets per folder, most used first.
	FolderCounts(ctx context.Context) ([]FolderCount, error)
	// AllTagSets returns the tag sets of every tagged asset for in-process
	// aggregation. Fine at catalog scale; large deployments would keep
	// incremental counters instead.
	AllTagSets(ctx context.Context) ([]TagList, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository wraps a gorm connection opened with TranslateError so that
// unique-index violations surface as gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, asset *MediaAsset) error {
	err := r.db.WithContext(ctx).Create(asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateHash
		}
		return err
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (MediaAsset, error) {
	var asset MediaAsset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaAsset{}, ErrNotFound
		}
		return MediaAsset{}, err
	}
	return asset, nil
}

func (r *gormRepository) GetByHash(ctx context.Context, contentHash string) (MediaAsset, error) {
	var asset MediaAsset
	err := r.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaAsset{}, ErrNotFound
		}
		return MediaAsset{}, err
	}
	return asset, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&MediaAsset{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&MediaAsset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Search(ctx context.Context, filter SearchFilter) ([]MediaAsset, int64, error) {
	tx := r.db.WithContext(ctx).Model(&MediaAsset{})

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		tx = tx.Where(
			"LOWER(original_filename) LIKE ? OR LOWER(alt_text) LIKE ? OR LOWER(caption) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Folder != "" {
		tx = tx.Where("folder = ?", filter.Folder)
	}
	if len(filter.Tags) > 0 {
		// Tags live in a JSON array column; a quoted-substring match on the
		// encoded form finds exact tag membership.
		conditions := make([]string, 0, len(filter.Tags))
		args := make([]interface{}, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			conditions = append(conditions, "tags LIKE ?")
			args = append(args, `%"`+tag+`"%`)
		}
		tx = tx.Where(strings.Join(conditions, " OR "), args...)
	}
	if filter.MimeType != "" {
		if strings.HasSuffix(filter.MimeType, "/*") {
			tx = tx.Where("mime_type LIKE ?", strings.TrimSuffix(filter.MimeType, "*")+"%")
		} else {
			tx = tx.Where("mime_type = ?", filter.MimeType)
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assets []MediaAsset
	err := tx.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&assets).Error
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *gormRepository) FolderCounts(ctx context.Context) ([]FolderCount, error) {
	var counts []FolderCount
	err := r.db.WithContext(ctx).
		Model(&MediaAsset{}).
		Select("folder, COUNT(id) AS count").
		Group("folder").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *gormRepository) AllTagSets(ctx context.Context) ([]TagList, error) {
	var rows []MediaAsset
	err := r.db.WithContext(ctx).
		Select("tags").
		Where("tags IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	sets := make([]TagList, 0, len(rows))
	for _, row := range rows {
		if len(row.Tags) > 0 {
			sets = append(sets, row.Tags)
		}
	}
	return sets, nil
}
