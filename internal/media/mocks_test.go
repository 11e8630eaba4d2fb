package media

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// memRepo is an in-memory Repository with the same contract as the gorm
// implementation, including atomic hash uniqueness on Create.
type memRepo struct {
	mu     sync.Mutex
	assets map[uuid.UUID]MediaAsset
}

func newMemRepo() *memRepo {
	return &memRepo{assets: make(map[uuid.UUID]MediaAsset)}
}

func (r *memRepo) Create(ctx context.Context, asset *MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.assets {
		if existing.ContentHash == asset.ContentHash {
			return ErrDuplicateHash
		}
	}
	r.assets[asset.ID] = *asset
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[id]
	if !ok {
		return MediaAsset{}, ErrNotFound
	}
	return asset, nil
}

func (r *memRepo) GetByHash(ctx context.Context, contentHash string) (MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, asset := range r.assets {
		if asset.ContentHash == contentHash {
			return asset, nil
		}
	}
	return MediaAsset{}, ErrNotFound
}

func (r *memRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[id]
	if !ok {
		return ErrNotFound
	}

	for key, value := range fields {
		switch key {
		case "folder":
			asset.Folder = value.(string)
		case "tags":
			if value == nil {
				asset.Tags = nil
			} else {
				asset.Tags = value.(TagList)
			}
		case "alt_text":
			asset.AltText = value.(string)
		case "caption":
			asset.Caption = value.(string)
		case "updated_at":
		}
	}
	asset.UpdatedAt = asset.UpdatedAt.Add(1) // any mutation bumps updated_at
	r.assets[id] = asset
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[id]; !ok {
		return ErrNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *memRepo) Search(ctx context.Context, filter SearchFilter) ([]MediaAsset, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []MediaAsset
	for _, asset := range r.assets {
		if !matchesFilter(asset, filter) {
			continue
		}
		matched = append(matched, asset)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func matchesFilter(asset MediaAsset, filter SearchFilter) bool {
	if filter.Query != "" {
		needle := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(asset.OriginalFilename), needle) &&
			!strings.Contains(strings.ToLower(asset.AltText), needle) &&
			!strings.Contains(strings.ToLower(asset.Caption), needle) {
			return false
		}
	}
	if filter.Folder != "" && asset.Folder != filter.Folder {
		return false
	}
	if len(filter.Tags) > 0 {
		any := false
		for _, tag := range filter.Tags {
			if asset.Tags.Contains(tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if filter.MimeType != "" {
		if strings.HasSuffix(filter.MimeType, "/*") {
			prefix := strings.TrimSuffix(filter.MimeType, "*")
			if !strings.HasPrefix(asset.MimeType, prefix) {
				return false
			}
		} else if asset.MimeType != filter.MimeType {
			return false
		}
	}
	return true
}

func (r *memRepo) FolderCounts(ctx context.Context) ([]FolderCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for _, asset := range r.assets {
		counts[asset.Folder]++
	}

	result := make([]FolderCount, 0, len(counts))
	for folder, count := range counts {
		result = append(result, FolderCount{Folder: folder, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Folder < result[j].Folder
	})
	return result, nil
}

func (r *memRepo) AllTagSets(ctx context.Context) ([]TagList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sets []TagList
	for _, asset := range r.assets {
		if len(asset.Tags) > 0 {
			sets = append(sets, asset.Tags)
		}
	}
	return sets, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}

// memStorage is an in-memory ObjectStorage with failure injection and
// call counting.
type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadCalls int
	deleteCalls int
	failUpload  error
	failDelete  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Upload(ctx context.Context, content []byte, filename, folder string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if s.failUpload != nil {
		return "", s.failUpload
	}

	path := folder + "/" + filename
	s.objects[path] = append([]byte(nil), content...)
	return path, nil
}

func (s *memStorage) Delete(ctx context.Context, storagePath string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls++
	if s.failDelete != nil {
		return false, s.failDelete
	}

	if _, ok := s.objects[storagePath]; !ok {
		return false, nil
	}
	delete(s.objects, storagePath)
	return true, nil
}

func (s *memStorage) GetURL(storagePath string) string {
	return "/api/v1/uploads/" + storagePath
}

func (s *memStorage) Kind() StorageKind {
	return StorageLocal
}

func (s *memStorage) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *memStorage) uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadCalls
}

func (s *memStorage) has(storagePath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[storagePath]
	return ok
}

var errBackendDown = errors.New("backend down")
