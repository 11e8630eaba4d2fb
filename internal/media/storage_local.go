package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalURLPrefix is the application route that serves locally stored files.
const LocalURLPrefix = "/api/v1/uploads/"

type localStorage struct {
	root string
}

// NewLocalStorage returns a filesystem backend rooted at dir, creating the
// root on first use.
func NewLocalStorage(dir string) (ObjectStorage, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStorage{root: dir}, nil
}

func (s *localStorage) Upload(ctx context.Context, content []byte, filename, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folderPath := filepath.Join(s.root, folder)
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}

	if err := os.WriteFile(filepath.Join(folderPath, filename), content, 0o644); err != nil {
		return "", fmt.Errorf("write %s/%s: %w", folder, filename, err)
	}

	return folder + "/" + filename, nil
}

func (s *localStorage) Delete(ctx context.Context, storagePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(storagePath)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *localStorage) GetURL(storagePath string) string {
	return LocalURLPrefix + storagePath
}

func (s *localStorage) Kind() StorageKind {
	return StorageLocal
}

// Root exposes the base directory so the HTTP layer can serve stored files.
func (s *localStorage) Root() string {
	return s.root
}
