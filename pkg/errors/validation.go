package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds element and symbol identifiers coming from the host.
const maxIDLength = 256

// ValidateElementID validates a host element identifier.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "element id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "element id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "element id contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "element id %q has surrounding whitespace", id)
	}

	return nil
}

// ValidateFamilyName validates an annotation family name such as "M_Door Tag".
// Family names are matched verbatim against the host library, so anything
// that could never match is rejected up front.
func ValidateFamilyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidConfig, "family name cannot be empty")
	}

	if len(name) > maxIDLength {
		return New(ErrCodeInvalidConfig, "family name too long (max %d characters)", maxIDLength)
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "family name %q contains invalid characters", name)
		}
	}

	return nil
}

// ValidatePath validates an input file path given on the command line or
// in a server request.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
