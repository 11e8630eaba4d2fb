package media

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultAllowedExtensions is the built-in allow-list; config may override it.
var DefaultAllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".pdf":  true,
	".mp4":  true,
	".webm": true,
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrPathTraversal   = errors.New("path traversal detected")
)

// FileExtension returns the lowercased extension of filename, dot included.
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// MimeTypeFor maps a file extension to its MIME type.
func MimeTypeFor(ext string) string {
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// ValidateFilename rejects names that are empty, over-long, not valid UTF-8
// or that smuggle path separators.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return ErrPathTraversal
	}
	if len(filename) > 255 {
		return ErrInvalidFilename
	}
	if !utf8.ValidString(filename) {
		return ErrInvalidFilename
	}
	return nil
}

// SanitizeFilename strips path separators and control characters.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")

	var builder strings.Builder
	for _, r := range filename {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// SanitizeFolder normalizes the organizational folder: path separators and
// control characters are stripped; an empty result falls back to the default.
func SanitizeFolder(folder string) string {
	folder = SanitizeFilename(strings.TrimSpace(folder))
	if folder == "" {
		return DefaultFolder
	}
	return folder
}

// ParseTags splits a comma-separated tag string, dropping empties and
// surrounding whitespace.
func ParseTags(value string) TagList {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	tags := make(TagList, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
