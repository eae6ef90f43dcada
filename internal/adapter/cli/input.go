package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/review"
)

// toolResultDoc is the JSON interchange schema for one analyzer's output.
// The analyzers run outside this program; a thin driver serializes their
// results into this form.
type toolResultDoc struct {
	Tool        string              `json:"tool"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
	Fixes       []fileFixDoc        `json:"fixes,omitempty"`
	Patches     []patchDoc          `json:"patches,omitempty"`
	FullPatch   string              `json:"fullPatch,omitempty"`
}

type fileFixDoc struct {
	File     string `json:"file"`
	Original string `json:"original"`
	Fixed    string `json:"fixed"`
}

type patchDoc struct {
	File        string `json:"file"`
	LineStart   int    `json:"lineStart"`
	LineEnd     int    `json:"lineEnd"`
	Replacement string `json:"replacement"`
}

// LoadToolResults reads analyzer output from the given path, or from stdin
// when the path is "-".
func LoadToolResults(path string, stdin io.Reader) ([]review.ToolResult, error) {
	var reader io.Reader
	if path == "-" {
		reader = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var docs []toolResultDoc
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode tool results: %w", err)
	}

	results := make([]review.ToolResult, 0, len(docs))
	for _, doc := range docs {
		if doc.Tool == "" {
			return nil, fmt.Errorf("tool result missing tool name")
		}
		result := review.ToolResult{
			Tool:        doc.Tool,
			Diagnostics: doc.Diagnostics,
			FullPatch:   doc.FullPatch,
		}
		for _, fix := range doc.Fixes {
			result.Fixes = append(result.Fixes, review.FileFix{
				File:     fix.File,
				Original: fix.Original,
				Fixed:    fix.Fixed,
			})
		}
		for _, p := range doc.Patches {
			result.Patches = append(result.Patches, domain.SuggestedPatch{
				File:        p.File,
				LineStart:   p.LineStart,
				LineEnd:     p.LineEnd,
				Replacement: p.Replacement,
				Tool:        doc.Tool,
			})
		}
		results = append(results, result)
	}
	return results, nil
}
