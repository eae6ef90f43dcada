package github

import (
	"fmt"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/diff"
)

// SynthesizeDiffPage converts one page of the changed-files listing into a
// diff page the merge layer can assemble. Each file's patch fragment is
// wrapped with the header lines the raw diff endpoint would have produced,
// so downstream parsing is identical on either retrieval path.
//
// Files without a patch fragment (binary content, or renames with no line
// changes) get a header-only section; the parser records them as binary or
// rename entries with no hunks.
func SynthesizeDiffPage(files []PullFile) diff.Page {
	var sb strings.Builder
	for _, f := range files {
		oldName := f.Filename
		if f.PreviousFilename != "" {
			oldName = f.PreviousFilename
		}

		fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", oldName, f.Filename)
		if f.PreviousFilename != "" {
			fmt.Fprintf(&sb, "rename from %s\nrename to %s\n", f.PreviousFilename, f.Filename)
		}
		if f.Patch == "" {
			if f.PreviousFilename == "" {
				fmt.Fprintf(&sb, "Binary files a/%s and b/%s differ\n", oldName, f.Filename)
			}
			continue
		}

		switch f.Status {
		case "added":
			sb.WriteString("--- /dev/null\n")
		default:
			fmt.Fprintf(&sb, "--- a/%s\n", oldName)
		}
		switch f.Status {
		case "removed":
			sb.WriteString("+++ /dev/null\n")
		default:
			fmt.Fprintf(&sb, "+++ b/%s\n", f.Filename)
		}

		sb.WriteString(f.Patch)
		if !strings.HasSuffix(f.Patch, "\n") {
			sb.WriteString("\n")
		}
	}

	return diff.Page{Text: sb.String()}
}
