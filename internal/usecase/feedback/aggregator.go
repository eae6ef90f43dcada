// Package feedback aggregates filtered diagnostics and re-projected
// suggestions into the artifacts a posting collaborator consumes: inline
// annotations, at most one review payload per commit, and always-present
// summary counts.
package feedback

import (
	"fmt"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// ToolSummary describes one analyzer's overall output for the run.
type ToolSummary struct {
	// Total is the number of concerns the tool raised, whether or not
	// they could be placed inside the diff.
	Total int

	// FullPatch is a unified diff of every fix the tool proposed,
	// including fixes that fell outside the diff's visible lines. Shown
	// collapsed in the review body when non-empty.
	FullPatch string
}

// AggregateRequest carries everything one aggregation needs. Prior state is
// threaded through explicitly; the aggregator holds no state between runs,
// so identical requests produce byte-identical bundles.
type AggregateRequest struct {
	Diagnostics []domain.Diagnostic
	Suggestions []domain.Suggestion

	// Model and Mode drive annotation eligibility. A nil Model with
	// FilterNone admits every diagnostic (local full-scan runs).
	Model *diff.Model
	Mode  diff.FilterMode

	// Tools maps tool name to its run-wide summary. Tools that ran but
	// found nothing must still appear here so the review body can report
	// a clean pass per tool.
	Tools map[string]ToolSummary

	// Skipped and Truncated are re-projection counts for suggestions
	// that could not be placed, or only partially placed, in the diff.
	Skipped   int
	Truncated int

	CommitSHA string
	Prior     *domain.PriorState

	// NoLGTM suppresses the approving review on a clean pass.
	NoLGTM bool
	// PassiveReviews posts COMMENT reviews instead of approving or
	// requesting changes.
	PassiveReviews bool
	// ReviewEnabled gates the review payload entirely; annotations and
	// counts are still produced when it is false.
	ReviewEnabled bool
}

// Aggregate folds one run's outputs into a single bundle.
//
// The review payload is omitted when reviews are disabled, or when the pass
// is clean and NoLGTM suppresses the approval. SummaryCounts are always
// populated: a clean run reports zeros rather than nothing.
func Aggregate(req AggregateRequest) (domain.OutputBundle, error) {
	if req.Mode != diff.FilterNone && req.Model == nil {
		return domain.OutputBundle{}, fmt.Errorf("aggregate: filter mode %s requires a diff model", req.Mode)
	}

	bundle := domain.OutputBundle{
		Annotations: annotate(req.Diagnostics, req.Model, req.Mode),
		Counts: domain.SummaryCounts{
			Diagnostics: len(req.Diagnostics),
			Suggestions: len(req.Suggestions),
			Truncated:   req.Truncated,
			Skipped:     req.Skipped,
			Concerns:    totalConcerns(req.Tools),
		},
	}

	clean := totalConcerns(req.Tools) == 0
	if !(clean && req.NoLGTM) {
		bundle.SummaryComment = buildSummaryBody(req, clean)
	}

	if !req.ReviewEnabled {
		return bundle, nil
	}
	if clean && req.NoLGTM {
		return bundle, nil
	}

	verdict := domain.VerdictRequestChanges
	if clean {
		verdict = domain.VerdictApprove
	}
	if req.PassiveReviews {
		verdict = domain.VerdictCommentOnly
	}

	review := &domain.ReviewPayload{
		SummaryBody: buildSummaryBody(req, clean),
		Suggestions: req.Suggestions,
		Verdict:     verdict,
		CommitSHA:   req.CommitSHA,
	}
	if req.Prior != nil {
		review.ReplaceReviewID = req.Prior.ReviewID
	}
	bundle.Review = review

	return bundle, nil
}

// annotate converts diagnostics on eligible lines into inline annotations.
// Diagnostics for files absent from the diff model are dropped under any
// restricted mode; with FilterNone every diagnostic annotates, except in
// files the diff marks binary.
func annotate(diags []domain.Diagnostic, model *diff.Model, mode diff.FilterMode) []domain.Annotation {
	var out []domain.Annotation
	for _, d := range diags {
		if mode != diff.FilterNone {
			fd, ok := model.File(d.File)
			if !ok {
				continue
			}
			if !diff.EligibleLines(fd, mode).Contains(d.Line) {
				continue
			}
		} else if model != nil {
			if fd, ok := model.File(d.File); ok && fd.IsBinary {
				continue
			}
		}
		out = append(out, domain.Annotation{
			File:     d.File,
			Line:     d.Line,
			Column:   d.Column,
			Severity: normalizeSeverity(d.Severity),
			Title:    annotationTitle(d),
			Message:  d.Message,
		})
	}
	return out
}

// normalizeSeverity folds clang's "note" level into the notice annotation
// level; unknown severities degrade to warning.
func normalizeSeverity(severity string) string {
	switch {
	case strings.HasPrefix(severity, "note"):
		return domain.SeverityNotice
	case severity == domain.SeverityNotice,
		severity == domain.SeverityWarning,
		severity == domain.SeverityError:
		return severity
	default:
		return domain.SeverityWarning
	}
}

func annotationTitle(d domain.Diagnostic) string {
	if d.RuleID != "" {
		return fmt.Sprintf("%s:%d:%d [%s]", d.File, d.Line, d.Column, d.RuleID)
	}
	return fmt.Sprintf("Run %s on %s", d.Tool, d.File)
}

func totalConcerns(tools map[string]ToolSummary) int {
	n := 0
	for _, t := range tools {
		n += t.Total
	}
	return n
}
