package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Tool names for the analyzers whose output this core consumes.
const (
	ToolClangFormat = "clang-format"
	ToolClangTidy   = "clang-tidy"
)

// Severity levels for diagnostics. These mirror the annotation levels
// accepted by CI log commands (notice/warning/error).
const (
	SeverityNotice  = "notice"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic is a single concern reported by an external analysis tool.
// The core treats it as opaque: no source semantics are inferred from it.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	RuleID   string `json:"ruleId"`
	Tool     string `json:"tool"`
}

// SuggestedPatch is a tool-proposed replacement for a line range of the
// current file content. LineStart/LineEnd are 1-indexed and inclusive;
// a patch replacing a single line has LineStart == LineEnd.
type SuggestedPatch struct {
	File        string
	LineStart   int
	LineEnd     int
	Replacement string
	Tool        string
}

// Suggestion is a SuggestedPatch re-projected into the coordinate space of
// a pull request diff. AnchorStart/AnchorEnd are new-side line numbers that
// are guaranteed to exist as non-removed lines in the diff.
type Suggestion struct {
	File        string
	AnchorStart int
	AnchorEnd   int
	Replacement string
	Tool        string
	// Truncated reports that part of the original patch fell outside the
	// eligible line set and was clipped away.
	Truncated bool
}

// Fingerprint uniquely identifies a suggestion's content and placement.
// It is embedded in posted comments so later runs can recognize their own
// feedback without comparing full bodies.
type Fingerprint string

// SuggestionFingerprint computes a deterministic fingerprint for a suggestion.
func SuggestionFingerprint(s Suggestion) Fingerprint {
	payload := fmt.Sprintf("%s|%d|%d|%s|%s",
		s.File, s.AnchorStart, s.AnchorEnd, s.Tool, s.Replacement)
	sum := sha256.Sum256([]byte(payload))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Annotation is a format-agnostic inline note for one diagnostic whose
// line survived eligibility filtering.
type Annotation struct {
	File     string
	Line     int
	Column   int
	Severity string
	Title    string
	Message  string
}

// Verdict is the overall review outcome.
type Verdict string

const (
	VerdictApprove        Verdict = "APPROVE"
	VerdictRequestChanges Verdict = "REQUEST_CHANGES"
	VerdictCommentOnly    Verdict = "COMMENT"
)

// ReviewPayload is the single aggregated review produced for one commit.
// Suggestions are grouped by file in diff appearance order.
type ReviewPayload struct {
	SummaryBody string
	Suggestions []Suggestion
	Verdict     Verdict
	CommitSHA   string
	// ReplaceReviewID is non-zero when a previous run already posted a
	// review for this commit; the posting collaborator must dismiss or
	// update that review instead of creating a second one.
	ReplaceReviewID int64
}

// PriorState is the opaque marker describing feedback already posted by a
// previous run. It is supplied by the posting collaborator and threaded
// through aggregation, never stored in package state.
type PriorState struct {
	ReviewID     int64
	CommentID    int64
	Fingerprints map[Fingerprint]bool
}

// SummaryCounts tallies a run's outcomes. It is always emitted, even for a
// clean pass, so callers can report zero concerns explicitly.
type SummaryCounts struct {
	Diagnostics int `json:"diagnostics"`
	Suggestions int `json:"suggestions"`
	Truncated   int `json:"truncated"`
	Skipped     int `json:"skipped"`

	// Concerns is the run-wide total across every tool, including fix-only
	// concerns that carry no diagnostic line (a clang-format reformat).
	Concerns int `json:"concerns"`
}

// ChecksFailed reports the exit signal for the run. Every tool concern
// counts as a failed check, whether or not a comment could be placed for
// it; a run with diagnostics but no tool tallies still fails.
func (c SummaryCounts) ChecksFailed() int {
	if c.Concerns > c.Diagnostics {
		return c.Concerns
	}
	return c.Diagnostics
}

// OutputBundle is the complete artifact set for one analysis run, handed to
// the external posting collaborator.
type OutputBundle struct {
	Annotations []Annotation
	Review      *ReviewPayload
	Counts      SummaryCounts

	// SummaryComment is the marker-tagged body for the persistent PR
	// conversation comment. It is produced even when Review is nil, so
	// thread comments track runs that post no review. Empty only on a
	// clean pass with the approval suppressed; the poster then deletes
	// any prior comment instead of updating it.
	SummaryComment string
}
