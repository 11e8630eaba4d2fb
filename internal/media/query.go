package media

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 100
)

// QueryService is the read side of the media catalog.
type QueryService interface {
	Search(ctx context.Context, filter SearchFilter) ([]MediaAsset, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (MediaAsset, error)
	// ListTags aggregates distinct tags with usage counts, most used first.
	ListTags(ctx context.Context) ([]TagCount, error)
	// ListFolders aggregates distinct folders with asset counts.
	ListFolders(ctx context.Context) ([]FolderCount, error)
}

type queryService struct {
	repo    Repository
	storage ObjectStorage
}

func NewQueryService(repo Repository, storage ObjectStorage) QueryService {
	return &queryService{repo: repo, storage: storage}
}

func (s *queryService) Search(ctx context.Context, filter SearchFilter) ([]MediaAsset, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	assets, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range assets {
		s.refreshURL(&assets[i])
	}
	return assets, total, nil
}

func (s *queryService) GetByID(ctx context.Context, id uuid.UUID) (MediaAsset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MediaAsset{}, err
	}
	s.refreshURL(&asset)
	return asset, nil
}

// refreshURL re-derives the URL through the active backend so time-limited
// signed URLs do not go stale in the catalog. Assets written by a different
// backend keep the URL minted at ingestion.
func (s *queryService) refreshURL(asset *MediaAsset) {
	if s.storage != nil && asset.StorageBackend == s.storage.Kind() {
		asset.URL = s.storage.GetURL(asset.StoragePath)
	}
}

func (s *queryService) ListTags(ctx context.Context) ([]TagCount, error) {
	sets, err := s.repo.AllTagSets(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, set := range sets {
		for _, tag := range set {
			counts[tag]++
		}
	}

	result := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result, nil
}

func (s *queryService) ListFolders(ctx context.Context) ([]FolderCount, error) {
	return s.repo.FolderCounts(ctx)
}
