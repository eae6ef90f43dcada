// Package suggest re-projects tool-suggested fixes onto the restricted
// coordinate space of a pull request diff, so every suggestion lands on a
// line the host review UI will accept.
package suggest

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// SplitPatch derives minimal line-range patches from a full-file fix.
// Formatters emit the entire fixed file; comparing it line-wise against the
// original content (with zero context, like `diff -U0`) yields one
// SuggestedPatch per contiguous changed region, which is the granularity
// review suggestions need.
//
// A pure insertion carries no replaced line of its own, so it is attached
// to the nearest original line: the preceding line when one exists,
// otherwise the first line of the file.
func SplitPatch(file, tool, original, fixed string) []domain.SuggestedPatch {
	if original == fixed {
		return nil
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(original, fixed)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var patches []domain.SuggestedPatch
	oldLine := 1 // next original line number to account for

	// One edit run = a maximal sequence of non-equal diffs. Each run
	// replaces a contiguous span of original lines.
	runStart := 0
	var runDeleted, runInserted []string
	inRun := false

	flush := func() {
		if !inRun {
			return
		}
		patch := domain.SuggestedPatch{File: file, Tool: tool}
		if len(runDeleted) > 0 {
			patch.LineStart = runStart
			patch.LineEnd = runStart + len(runDeleted) - 1
			patch.Replacement = strings.Join(runInserted, "\n")
		} else {
			// Insertion only: anchor to the preceding original line and
			// re-emit it together with the inserted text.
			anchor := runStart - 1
			if anchor < 1 {
				anchor = 1
				patch.Replacement = strings.Join(runInserted, "\n")
				if prev := originalLine(diffs, anchor); prev != "" {
					patch.Replacement += "\n" + prev
				}
			} else {
				patch.Replacement = originalLine(diffs, anchor)
				if len(runInserted) > 0 {
					patch.Replacement += "\n" + strings.Join(runInserted, "\n")
				}
			}
			patch.LineStart = anchor
			patch.LineEnd = anchor
		}
		patches = append(patches, patch)
		runDeleted, runInserted = nil, nil
		inRun = false
	}

	for _, d := range diffs {
		lines := splitDiffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			oldLine += len(lines)
		case diffmatchpatch.DiffDelete:
			if !inRun {
				runStart = oldLine
				inRun = true
			}
			runDeleted = append(runDeleted, lines...)
			oldLine += len(lines)
		case diffmatchpatch.DiffInsert:
			if !inRun {
				runStart = oldLine
				inRun = true
			}
			runInserted = append(runInserted, lines...)
		}
	}
	flush()

	return patches
}

// splitDiffLines splits a diff fragment into its lines, dropping the
// trailing empty element produced by a terminating newline.
func splitDiffLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// originalLine returns the content of the given 1-indexed line of the
// original text, reconstructed from the equal/delete fragments of the diff.
func originalLine(diffs []diffmatchpatch.Diff, n int) string {
	line := 1
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffInsert {
			continue
		}
		for _, content := range splitDiffLines(d.Text) {
			if line == n {
				return content
			}
			line++
		}
	}
	return ""
}
