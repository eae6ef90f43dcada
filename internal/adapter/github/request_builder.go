package github

import (
	"fmt"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// BuildReviewComments converts re-projected suggestions to review comments.
// Anchors are already validated against the diff, so every suggestion maps
// to exactly one comment. The function is pure and does not modify input.
func BuildReviewComments(suggestions []domain.Suggestion) []ReviewComment {
	var comments []ReviewComment
	for _, s := range suggestions {
		comment := ReviewComment{
			Path: s.File,
			Line: s.AnchorEnd,
			Side: "RIGHT",
			Body: FormatSuggestionComment(s),
		}
		if s.AnchorStart < s.AnchorEnd {
			comment.StartLine = s.AnchorStart
		}
		comments = append(comments, comment)
	}
	return comments
}

// FormatSuggestionComment renders one suggestion as GitHub-flavored
// Markdown. An empty replacement asks for removal of the anchored lines
// instead of emitting an empty suggestion block, which GitHub rejects.
// The trailing fingerprint comment is invisible in the UI and lets later
// runs recognize their own comments.
func FormatSuggestionComment(s domain.Suggestion) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s ", s.Tool))
	if s.Truncated {
		sb.WriteString("(partial fix: the rest falls outside this diff)")
	}
	sb.WriteString("\n")

	if s.Replacement == "" {
		if s.AnchorStart < s.AnchorEnd {
			sb.WriteString(fmt.Sprintf("Please remove lines %d-%d\n", s.AnchorStart, s.AnchorEnd))
		} else {
			sb.WriteString(fmt.Sprintf("Please remove line %d\n", s.AnchorEnd))
		}
	} else {
		sb.WriteString("```suggestion\n")
		sb.WriteString(s.Replacement)
		sb.WriteString("\n```\n")
	}

	sb.WriteString(fmt.Sprintf("<!-- fingerprint: %s -->", domain.SuggestionFingerprint(s)))
	return sb.String()
}

// MapVerdict converts the aggregated verdict to the API review event.
func MapVerdict(v domain.Verdict) ReviewEvent {
	switch v {
	case domain.VerdictApprove:
		return EventApprove
	case domain.VerdictRequestChanges:
		return EventRequestChanges
	default:
		return EventComment
	}
}

// ExtractFingerprints collects the fingerprint markers embedded in
// previously posted comment bodies.
func ExtractFingerprints(bodies []string) map[domain.Fingerprint]bool {
	out := make(map[domain.Fingerprint]bool)
	for _, body := range bodies {
		idx := strings.Index(body, "<!-- fingerprint: ")
		if idx < 0 {
			continue
		}
		rest := body[idx+len("<!-- fingerprint: "):]
		end := strings.Index(rest, " -->")
		if end < 0 {
			continue
		}
		out[domain.Fingerprint(rest[:end])] = true
	}
	return out
}
