package order

import (
	"path"
	"strings"
)

// LegacyKind tags outcomes produced by the local suffix rule.
const LegacyKind = "legacy"

var legacySuffixes = []string{
	"preparationscan.dcm",
	"antagonistscan.dcm",
	"raw preparation scan.dcm",
	"raw antagonist scan.dcm",
	"materials.xml",
	"manufacturers.3ml",
	"dentaldesignermodellingtree.3ml",
}

// IsRequiredLegacy applies the fixed suffix rule used when the server cannot
// negotiate the file selection.
func IsRequiredLegacy(rel string) bool {
	slashed := strings.ReplaceAll(rel, "\\", "/")
	if slashed == "" || strings.HasSuffix(slashed, "/") {
		return false
	}

	lower := strings.ToLower(slashed)
	if strings.Contains(lower, "__macosx") || strings.HasPrefix(path.Base(lower), "._") {
		return false
	}
	if strings.Contains("/"+lower, "/backup/") {
		return false
	}

	for _, suffix := range legacySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// LegacyOutcome selects the descriptor plus every file matching the suffix rule.
func LegacyOutcome(h *Handler) *FilterOutcome {
	paths := []string{h.OrderFilePath()}
	for p := range h.AllRelativePaths() {
		if p != h.OrderFilePath() && IsRequiredLegacy(p) {
			paths = append(paths, p)
		}
	}
	return &FilterOutcome{
		Kind:      LegacyKind,
		OrderPath: h.OrderFilePath(),
		Paths:     paths,
	}
}
