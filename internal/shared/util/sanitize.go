package util

import (
	"errors"
	"regexp"
	"strings"
)

var nonExportChars = regexp.MustCompile(`[^a-z0-9]`)

// SanitizeFileName removes path separators and whitespace and rejects
// traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeExportName lowercases name and replaces every character outside
// [a-z0-9] with an underscore. Used for archive and entry names.
func SanitizeExportName(name string) string {
	return nonExportChars.ReplaceAllString(strings.ToLower(name), "_")
}
