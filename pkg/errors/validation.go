package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateIndividualID validates an individual identifier from source data.
// It rejects IDs that could corrupt cache keys or output documents.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
//
// Structural validation (duplicates, dangling references) is done by the
// graph loader, which has the full record set in view.
func ValidateIndividualID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIndividual, "individual ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidIndividual, "individual ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIndividual, "individual ID contains control characters")
		}
	}

	return nil
}

// ValidateOutputPath validates a user-supplied output file path.
// It ensures the path has no null bytes and does not traverse upward out
// of the working directory when relative.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "output path contains null byte")
	}

	if !filepath.IsAbs(path) {
		clean := filepath.Clean(path)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return New(ErrCodeInvalidPath, "output path escapes working directory: %q", path)
		}
	}

	return nil
}
