package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/attest-tracker/constants"
)

// AllowedExt checks if a file extension is in the allowed set (defaults to constants.AllowedExtensions).
func AllowedExt(ext string, allow map[string]struct{}) bool {
	return constants.IsAllowedExt(ext, allow)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
