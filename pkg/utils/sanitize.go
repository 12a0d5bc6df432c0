package utils

import (
	"regexp"
	"strings"
)

var (
	unsafePathChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	underscoreRuns   = regexp.MustCompile(`_+`)
	maxComponentSize = 100
)

// SanitizeFilename turns an arbitrary string (typically a host name) into a
// single safe path component. Empty results become "untitled".
func SanitizeFilename(name string) string {
	cleaned := underscoreRuns.ReplaceAllString(unsafePathChars.ReplaceAllString(name, "_"), "_")
	cleaned = strings.Trim(cleaned, "_ ")
	if len(cleaned) > maxComponentSize {
		cleaned = strings.Trim(cleaned[:maxComponentSize], "_ ")
	}
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}
