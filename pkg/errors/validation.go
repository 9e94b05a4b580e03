package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds keyword ids; they end up in element ids, DOT sources
// and URLs.
const maxIDLength = 256

// ValidateKeywordID validates a keyword id for safety and correctness.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateKeywordID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "keyword id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "keyword id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "keyword id %q contains invalid control characters", id)
		}
	}

	return nil
}

// ValidateImageName validates an image reference from a dataset.
// Images are resolved against a fixed prefix, so they must be simple
// relative names.
//
// Validation rules:
//   - Empty (or blank) names are allowed and mean "no image"
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateImageName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	const maxPathLength = 500
	if len(name) > maxPathLength {
		return New(ErrCodeInvalidPath, "image name too long (max %d characters)", maxPathLength)
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "image name contains invalid characters")
		}
	}

	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidPath, "image name must be relative (cannot start with /)")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "image name cannot contain path traversal sequences (..)")
	}

	if strings.Contains(name, "\\") {
		return New(ErrCodeInvalidPath, "image name cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
