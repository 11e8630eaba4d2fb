package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageUpload(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	content := []byte("file bytes")
	path, err := storage.Upload(context.Background(), content, "20250101_000000_abcd1234.png", "blog")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if path != "blog/20250101_000000_abcd1234.png" {
		t.Errorf("unexpected storage path %s", path)
	}

	stored, err := os.ReadFile(filepath.Join(root, "blog", "20250101_000000_abcd1234.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(stored) != string(content) {
		t.Error("stored content does not match uploaded content")
	}
}

func TestLocalStorageUploadCreatesFolder(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	// First use of a folder creates it; a second write must not fail.
	if _, err := storage.Upload(context.Background(), []byte("a"), "a.png", "fresh"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := storage.Upload(context.Background(), []byte("b"), "b.png", "fresh"); err != nil {
		t.Fatalf("second upload: %v", err)
	}
}

func TestLocalStorageDeleteIdempotent(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	path, err := storage.Upload(context.Background(), []byte("x"), "x.png", "general")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	removed, err := storage.Delete(context.Background(), path)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Error("expected first delete to report removal")
	}

	removed, err = storage.Delete(context.Background(), path)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if removed {
		t.Error("expected second delete to report absence, not removal")
	}
}

func TestLocalStorageGetURL(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if got := storage.GetURL("blog/x.png"); got != "/api/v1/uploads/blog/x.png" {
		t.Errorf("unexpected URL %s", got)
	}
	if storage.Kind() != StorageLocal {
		t.Errorf("unexpected kind %s", storage.Kind())
	}
}

func TestLocalStorageCanceledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := storage.Upload(ctx, []byte("x"), "x.png", "general"); err == nil {
		t.Error("expected error from canceled context")
	}
}
