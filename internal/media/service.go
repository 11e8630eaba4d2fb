package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	uploadTimeout  = 30 * time.Second
	deleteTimeout  = 10 * time.Second
	catalogTimeout = 10 * time.Second
)

// Service is the write side of the media subsystem: ingestion with
// content-hash deduplication, metadata mutation and deletion.
type Service interface {
	// Ingest validates, fingerprints and persists an upload. When content
	// with the same hash already exists the stored asset is returned
	// unchanged with isDuplicate=true and no backend write occurs.
	Ingest(ctx context.Context, input IngestInput) (MediaAsset, bool, error)

	UpdateMetadata(ctx context.Context, id uuid.UUID, update MetadataUpdate) (MediaAsset, error)
	ReplaceTags(ctx context.Context, id uuid.UUID, tags TagList) (MediaAsset, error)
	AddTags(ctx context.Context, id uuid.UUID, tags TagList) (MediaAsset, error)
	RemoveTag(ctx context.Context, id uuid.UUID, tag string) (MediaAsset, error)

	// Delete removes the backend object first and the catalog row second.
	// A backend failure leaves the row intact and is surfaced to the caller.
	Delete(ctx context.Context, id uuid.UUID) error
}

type IngestInput struct {
	Content          []byte
	OriginalFilename string
	Folder           string
	Tags             TagList
	AltText          string
	Caption          string
}

// MetadataUpdate is a partial update; nil fields are left untouched.
type MetadataUpdate struct {
	Folder  *string
	Tags    *TagList
	AltText *string
	Caption *string
}

type ServiceConfig struct {
	MaxUploadBytes    int64
	AllowedExtensions map[string]bool
}

type service struct {
	repo     Repository
	storage  ObjectStorage
	producer EventProducer
	conf     ServiceConfig
}

// NewService wires the ingestion service. producer may be nil to disable
// event emission.
func NewService(repo Repository, storage ObjectStorage, producer EventProducer, conf ServiceConfig) Service {
	if conf.AllowedExtensions == nil {
		conf.AllowedExtensions = DefaultAllowedExtensions
	}
	return &service{
		repo:     repo,
		storage:  storage,
		producer: producer,
		conf:     conf,
	}
}

func (s *service) Ingest(ctx context.Context, input IngestInput) (MediaAsset, bool, error) {
	if err := ValidateFilename(input.OriginalFilename); err != nil {
		return MediaAsset{}, false, err
	}

	// Extension check runs before reading or hashing anything.
	ext := FileExtension(input.OriginalFilename)
	if ext == "" || !s.conf.AllowedExtensions[ext] {
		return MediaAsset{}, false, ErrUnsupportedMediaType
	}

	if s.conf.MaxUploadBytes > 0 && int64(len(input.Content)) > s.conf.MaxUploadBytes {
		return MediaAsset{}, false, ErrPayloadTooLarge
	}
	if len(input.Content) == 0 {
		return MediaAsset{}, false, ErrEmptyContent
	}

	contentHash := Fingerprint(input.Content)

	lookupCtx, cancelLookup := context.WithTimeout(ctx, catalogTimeout)
	defer cancelLookup()
	existing, err := s.repo.GetByHash(lookupCtx, contentHash)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return MediaAsset{}, false, err
	}

	now := time.Now()
	folder := SanitizeFolder(input.Folder)
	storedName := StoredFilename(input.OriginalFilename, contentHash, now)

	uploadCtx, cancelUpload := context.WithTimeout(ctx, uploadTimeout)
	defer cancelUpload()
	storagePath, err := s.storage.Upload(uploadCtx, input.Content, storedName, folder)
	if err != nil {
		return MediaAsset{}, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	asset := MediaAsset{
		ID:               uuid.New(),
		ContentHash:      contentHash,
		StoredFilename:   storedName,
		OriginalFilename: input.OriginalFilename,
		URL:              s.storage.GetURL(storagePath),
		SizeBytes:        int64(len(input.Content)),
		MimeType:         MimeTypeFor(ext),
		Folder:           folder,
		Tags:             input.Tags,
		StorageBackend:   s.storage.Kind(),
		StoragePath:      storagePath,
		AltText:          input.AltText,
		Caption:          input.Caption,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	insertCtx, cancelInsert := context.WithTimeout(ctx, catalogTimeout)
	defer cancelInsert()
	if err := s.repo.Create(insertCtx, &asset); err != nil {
		if errors.Is(err, ErrDuplicateHash) {
			// Lost the race to a concurrent identical upload: the unique
			// index rejected our row, so the winner's row is now visible.
			return s.recoverDuplicate(ctx, contentHash, storagePath)
		}

		// The object was written before the row; remove it so a failed
		// insert leaves no orphan behind.
		s.discardObject(storagePath)
		return MediaAsset{}, false, err
	}

	s.emit(MediaEvent{
		AssetID:   asset.ID.String(),
		Action:    EventIngested,
		Folder:    asset.Folder,
		MimeType:  asset.MimeType,
		SizeBytes: asset.SizeBytes,
		Timestamp: now,
	})

	return asset, false, nil
}

func (s *service) recoverDuplicate(ctx context.Context, contentHash, losingPath string) (MediaAsset, bool, error) {
	readCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	winner, err := s.repo.GetByHash(readCtx, contentHash)
	if err != nil {
		s.discardObject(losingPath)
		return MediaAsset{}, false, err
	}

	// Identical content racing within the same timestamp lands on the same
	// generated path; in that case the winner's row points at the object we
	// just wrote and it must stay.
	if winner.StoragePath != losingPath {
		s.discardObject(losingPath)
	}
	return winner, true, nil
}

// discardObject is the best-effort cleanup of an object whose catalog row
// never materialized. Detached from the request context so cancellation
// cannot strand it half-done.
func (s *service) discardObject(storagePath string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	_, _ = s.storage.Delete(ctx, storagePath)
}

func (s *service) UpdateMetadata(ctx context.Context, id uuid.UUID, update MetadataUpdate) (MediaAsset, error) {
	fields := make(map[string]interface{})
	if update.Folder != nil {
		fields["folder"] = SanitizeFolder(*update.Folder)
	}
	if update.Tags != nil {
		fields["tags"] = *update.Tags
	}
	if update.AltText != nil {
		fields["alt_text"] = *update.AltText
	}
	if update.Caption != nil {
		fields["caption"] = *update.Caption
	}

	if len(fields) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return MediaAsset{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ReplaceTags(ctx context.Context, id uuid.UUID, tags TagList) (MediaAsset, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return MediaAsset{}, err
	}
	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"tags": dedupeTags(tags)}); err != nil {
		return MediaAsset{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) AddTags(ctx context.Context, id uuid.UUID, tags TagList) (MediaAsset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MediaAsset{}, err
	}

	merged := asset.Tags
	for _, tag := range tags {
		if !merged.Contains(tag) {
			merged = append(merged, tag)
		}
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"tags": merged}); err != nil {
		return MediaAsset{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) RemoveTag(ctx context.Context, id uuid.UUID, tag string) (MediaAsset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MediaAsset{}, err
	}

	if !asset.Tags.Contains(tag) {
		return asset, nil
	}

	remaining := make(TagList, 0, len(asset.Tags))
	for _, existing := range asset.Tags {
		if existing != tag {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		remaining = nil
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"tags": remaining}); err != nil {
		return MediaAsset{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Backend object goes first. If this fails the catalog row stays: an
	// orphaned object is invisible, a dangling catalog row breaks readers.
	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()
	if _, err := s.storage.Delete(deleteCtx, asset.StoragePath); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(MediaEvent{
		AssetID:   asset.ID.String(),
		Action:    EventDeleted,
		Folder:    asset.Folder,
		MimeType:  asset.MimeType,
		SizeBytes: asset.SizeBytes,
		Timestamp: time.Now(),
	})

	return nil
}

func (s *service) emit(event MediaEvent) {
	if s.producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.producer.SendMediaEvent(ctx, event)
}

func dedupeTags(tags TagList) TagList {
	if len(tags) == 0 {
		return nil
	}
	deduped := make(TagList, 0, len(tags))
	for _, tag := range tags {
		if !deduped.Contains(tag) {
			deduped = append(deduped, tag)
		}
	}
	return deduped
}
