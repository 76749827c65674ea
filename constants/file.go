package constants

import "strings"

// Source types reported by the OCR adapter.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// FileTypes holds the source types the ingestion pipeline understands.
var FileTypes = []string{PDF, IMAGE, TXT}

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source type for a normalized extension, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt":
		return TXT
	case "png", "jpg", "jpeg":
		return IMAGE
	default:
		return ""
	}
}

// IsAllowedExt reports whether ext is in the allowed set.
func IsAllowedExt(ext string, allowed map[string]struct{}) bool {
	if allowed == nil {
		allowed = AllowedExtensions
	}
	_, ok := allowed[NormalizeExt(ext)]
	return ok
}
