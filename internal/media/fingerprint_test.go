package media

import (
	"strings"
	"testing"
	"time"
)

func TestFingerprintDeterminism(t *testing.T) {
	content := []byte("the same bytes every time")

	first := Fingerprint(content)
	second := Fingerprint(content)

	if first != second {
		t.Errorf("fingerprint not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
	if first != strings.ToLower(first) {
		t.Errorf("expected lowercase hex, got %s", first)
	}
}

func TestFingerprintDistinctContent(t *testing.T) {
	a := Fingerprint([]byte("content a"))
	b := Fingerprint([]byte("content b"))

	if a == b {
		t.Errorf("distinct content produced identical hash %s", a)
	}
}

func TestFingerprintKnownValue(t *testing.T) {
	// sha256("abc"), a fixed vector to catch accidental algorithm changes.
	got := Fingerprint([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Fingerprint(abc) = %s, want %s", got, want)
	}
}

func TestStoredFilename(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	hash := Fingerprint([]byte("abc"))

	got := StoredFilename("Photo.PNG", hash, now)
	want := "20250314_092653_ba7816bf.png"
	if got != want {
		t.Errorf("StoredFilename = %s, want %s", got, want)
	}
}

func TestStoredFilenameNoExtension(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	got := StoredFilename("README", "deadbeefcafe", now)
	if got != "20250314_092653_deadbeef" {
		t.Errorf("unexpected stored filename %s", got)
	}
}
