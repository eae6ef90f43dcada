package cli

import (
	"path/filepath"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/usecase/review"
)

// filterToolResults drops diagnostics, fixes, and patches for files outside
// the configured extension list or under an ignored path prefix. Tools stay
// in the result even when everything they reported is filtered away, so the
// per-tool tallies still cover them.
func filterToolResults(tools []review.ToolResult, extensions, ignorePaths []string) []review.ToolResult {
	if len(extensions) == 0 && len(ignorePaths) == 0 {
		return tools
	}

	filtered := make([]review.ToolResult, 0, len(tools))
	for _, t := range tools {
		out := review.ToolResult{Tool: t.Tool, FullPatch: t.FullPatch}
		for _, d := range t.Diagnostics {
			if keepFile(d.File, extensions, ignorePaths) {
				out.Diagnostics = append(out.Diagnostics, d)
			}
		}
		for _, fix := range t.Fixes {
			if keepFile(fix.File, extensions, ignorePaths) {
				out.Fixes = append(out.Fixes, fix)
			}
		}
		for _, p := range t.Patches {
			if keepFile(p.File, extensions, ignorePaths) {
				out.Patches = append(out.Patches, p)
			}
		}
		filtered = append(filtered, out)
	}
	return filtered
}

func keepFile(file string, extensions, ignorePaths []string) bool {
	clean := filepath.ToSlash(file)
	for _, prefix := range ignorePaths {
		prefix = strings.TrimSuffix(filepath.ToSlash(prefix), "/")
		if prefix != "" && (clean == prefix || strings.HasPrefix(clean, prefix+"/")) {
			return false
		}
	}
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(clean), ".")
	for _, allowed := range extensions {
		if strings.EqualFold(ext, strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}
