package utils

import (
	"path"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-\._/]+`)

// SanitizeKey makes an upload key safe to use as a storage path: no path
// escapes, no shell-hostile characters, forward slashes only.
func SanitizeKey(key string) string {
	clean := strings.ReplaceAll(key, "\\", "/")
	clean = path.Clean("/" + clean)
	clean = strings.TrimPrefix(clean, "/")
	clean = unsafeChars.ReplaceAllString(clean, "")
	return strings.ReplaceAll(clean, " ", "_")
}

// CleanTitle normalizes a filename into a human-readable default title.
func CleanTitle(filename string) string {
	ext := path.Ext(filename)
	clean := strings.TrimSuffix(filename, ext)
	clean = strings.ReplaceAll(clean, "_", " ")
	clean = strings.ReplaceAll(clean, "-", " ")
	return strings.TrimSpace(clean)
}
