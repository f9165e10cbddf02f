package middleware

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveUnder maps a client-supplied relative directory onto root. Absolute
// paths, traversal and shell metacharacters are rejected.
func ResolveUnder(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", fmt.Errorf("directory cannot be empty")
	}
	for _, d := range []string{"$(", "`", "&", "|", ";", "\n", "\r", "\x00"} {
		if strings.Contains(rel, d) {
			return "", fmt.Errorf("invalid characters in path")
		}
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return filepath.Join(root, cleaned), nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
