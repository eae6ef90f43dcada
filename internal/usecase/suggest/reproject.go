package suggest

import (
	"fmt"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// UnanchorableError reports a suggestion whose anchor line does not exist
// as a non-removed line in the diff. The host review API rejects comments
// on lines it cannot show, so such a suggestion is dropped and counted as
// skipped; it never aborts the run.
type UnanchorableError struct {
	File string
	Line int
}

func (e *UnanchorableError) Error() string {
	return fmt.Sprintf("suggestion for %s cannot anchor to line %d: not a visible diff line", e.File, e.Line)
}

// Reproject maps one tool patch onto the diff's restricted line set.
//
// The patch's span is intersected with the eligible lines. An empty
// intersection reports skipped=true. A partial intersection clips the
// replacement to the first contiguous eligible run and marks the
// suggestion truncated; text from non-adjacent eligible regions is never
// interleaved. Replacement lines are mapped positionally onto the span
// they replace, so clipping retains exactly the lines covering the kept
// span.
func Reproject(patch domain.SuggestedPatch, fd *diff.FileDiff, elig diff.Eligibility) (domain.Suggestion, bool, error) {
	lo, hi := patch.LineStart, patch.LineEnd
	if lo < 1 || hi < lo {
		return domain.Suggestion{}, true, &UnanchorableError{File: patch.File, Line: lo}
	}
	if fd == nil {
		// File not in the change set: diagnostics may still count, but no
		// diff-anchored placement is possible.
		return domain.Suggestion{}, true, nil
	}

	// First contiguous run of eligible lines inside [lo, hi].
	runStart, runEnd := 0, 0
	for n := lo; n <= hi; n++ {
		if elig.Contains(n) {
			if runStart == 0 {
				runStart = n
			}
			runEnd = n
		} else if runStart != 0 {
			break
		}
	}
	if runStart == 0 {
		return domain.Suggestion{}, true, nil
	}

	if !fd.HasNewLine(runStart) || !fd.HasNewLine(runEnd) {
		return domain.Suggestion{}, true, &UnanchorableError{File: patch.File, Line: runStart}
	}

	truncated := runStart != lo || runEnd != hi
	replacement := clipReplacement(patch.Replacement, lo, hi, runStart, runEnd)

	return domain.Suggestion{
		File:        patch.File,
		AnchorStart: runStart,
		AnchorEnd:   runEnd,
		Replacement: replacement,
		Tool:        patch.Tool,
		Truncated:   truncated,
	}, false, nil
}

// clipReplacement keeps the replacement lines that positionally cover the
// retained span. Surplus lines beyond the original span (insertion-heavy
// fixes) stay attached to the span's final line and therefore survive only
// when the tail of the span is retained.
func clipReplacement(replacement string, lo, hi, runStart, runEnd int) string {
	if runStart == lo && runEnd == hi {
		return replacement
	}
	lines := strings.Split(replacement, "\n")

	from := runStart - lo
	if from >= len(lines) {
		return ""
	}
	if runEnd == hi {
		return strings.Join(lines[from:], "\n")
	}
	to := runEnd - lo + 1
	if to > len(lines) {
		to = len(lines)
	}
	return strings.Join(lines[from:to], "\n")
}
