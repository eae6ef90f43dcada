// Package review wires one analysis run end to end: assemble the diff
// model, re-project tool fixes onto it, aggregate the feedback bundle, and
// optionally deliver the bundle to a pull request.
package review

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/feedback"
	ghpost "github.com/cpp-linter/cpp-linter/internal/usecase/github"
	"github.com/cpp-linter/cpp-linter/internal/usecase/suggest"
)

// DiffSource yields raw diff pages for the run. The GitHub adapter returns
// one page per API response; the local git engine returns a single page.
type DiffSource interface {
	DiffPages(ctx context.Context) ([]diff.Page, error)
}

// Poster delivers a finished bundle to the pull request.
type Poster interface {
	Post(ctx context.Context, req ghpost.PostRequest) (*ghpost.PostResult, error)
}

// StateStore persists posted-feedback state between runs.
type StateStore interface {
	Load(ctx context.Context, repository string, pullNumber int) (*domain.PriorState, error)
	Save(ctx context.Context, repository string, pullNumber int, state domain.PriorState) error
}

// FileFix pairs a file's current content with a tool's fully fixed version
// of it. The orchestrator splits the pair into minimal line-range patches.
type FileFix struct {
	File     string
	Original string
	Fixed    string
}

// ToolResult is one analyzer's structured output for the run. The tools
// themselves run outside this program; their output arrives already parsed.
type ToolResult struct {
	Tool        string
	Diagnostics []domain.Diagnostic

	// Fixes are whole-file rewrites (clang-format style). Patches are
	// pre-split line-range fixes (clang-tidy replacements). Both feed
	// the re-projector.
	Fixes   []FileFix
	Patches []domain.SuggestedPatch

	// FullPatch is a unified diff of everything the tool proposed,
	// rendered collapsed in the review body.
	FullPatch string
}

// Request describes one run.
type Request struct {
	Mode  diff.FilterMode
	Tools []ToolResult

	// Repository is "owner/name". Empty for local runs, which skip
	// posting and prior-state lookup.
	Repository string
	PullNumber int
	CommitSHA  string

	NoLGTM         bool
	PassiveReviews bool
	ReviewEnabled  bool
	ThreadComments bool
	BotUsername    string

	// Post delivers the bundle to the pull request. Requires Repository
	// and a configured poster.
	Post bool
}

// Result is the outcome of one run.
type Result struct {
	Bundle domain.OutputBundle

	// Posted is non-nil when the bundle was delivered.
	Posted *ghpost.PostResult

	// Faults collects non-fatal parse and re-projection failures.
	Faults []error
}

// Orchestrator runs the pipeline. Source may be nil for diff-less local
// runs (annotations only, FilterNone). Poster and store are optional.
type Orchestrator struct {
	source DiffSource
	poster Poster
	store  StateStore
}

// NewOrchestrator assembles an orchestrator from its collaborators.
func NewOrchestrator(source DiffSource, poster Poster, store StateStore) *Orchestrator {
	return &Orchestrator{source: source, poster: poster, store: store}
}

// Run executes one analysis run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	model, faults, err := o.buildModel(ctx, req.Mode)
	if err != nil {
		return nil, err
	}

	var patches []domain.SuggestedPatch
	for _, tool := range req.Tools {
		patches = append(patches, tool.Patches...)
		for _, fix := range tool.Fixes {
			patches = append(patches, suggest.SplitPatch(fix.File, tool.Tool, fix.Original, fix.Fixed)...)
		}
	}

	var projected suggest.Result
	if model != nil {
		projected = suggest.ReprojectAll(patches, model, req.Mode)
		faults = append(faults, projected.Faults...)
	} else {
		// No diff to anchor against: every patch is skipped, but the
		// diagnostics still become annotations.
		projected.Skipped = len(patches)
	}

	prior, err := o.loadPrior(ctx, req)
	if err != nil {
		return nil, err
	}

	bundle, err := feedback.Aggregate(feedback.AggregateRequest{
		Diagnostics:    collectDiagnostics(req.Tools),
		Suggestions:    projected.Suggestions,
		Model:          model,
		Mode:           req.Mode,
		Tools:          toolSummaries(req.Tools),
		Skipped:        projected.Skipped,
		Truncated:      projected.Truncated,
		CommitSHA:      req.CommitSHA,
		Prior:          prior,
		NoLGTM:         req.NoLGTM,
		PassiveReviews: req.PassiveReviews,
		ReviewEnabled:  req.ReviewEnabled,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Bundle: bundle, Faults: faults}
	if req.Post {
		result.Posted, err = o.deliver(ctx, req, bundle, prior)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// buildModel fetches and merges the diff pages. A nil source is only valid
// for FilterNone runs; restricted modes cannot work without a diff.
func (o *Orchestrator) buildModel(ctx context.Context, mode diff.FilterMode) (*diff.Model, []error, error) {
	if o.source == nil {
		if mode != diff.FilterNone {
			return nil, nil, fmt.Errorf("filter mode %s requires a diff source", mode)
		}
		return nil, nil, nil
	}

	pages, err := o.source.DiffPages(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch diff: %w", err)
	}
	model, err := diff.Merge(pages)
	if err != nil {
		return nil, nil, fmt.Errorf("merge diff pages: %w", err)
	}
	return model, model.Faults(), nil
}

func (o *Orchestrator) loadPrior(ctx context.Context, req Request) (*domain.PriorState, error) {
	if o.store == nil || req.Repository == "" {
		return nil, nil
	}
	prior, err := o.store.Load(ctx, req.Repository, req.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("load prior state: %w", err)
	}
	return prior, nil
}

func (o *Orchestrator) deliver(ctx context.Context, req Request, bundle domain.OutputBundle, prior *domain.PriorState) (*ghpost.PostResult, error) {
	if o.poster == nil {
		return nil, fmt.Errorf("posting requested but no poster configured")
	}
	owner, repo, err := splitRepository(req.Repository)
	if err != nil {
		return nil, err
	}

	posted, err := o.poster.Post(ctx, ghpost.PostRequest{
		Owner:          owner,
		Repo:           repo,
		PullNumber:     req.PullNumber,
		Bundle:         bundle,
		Prior:          prior,
		ThreadComments: req.ThreadComments,
		BotUsername:    req.BotUsername,
	})
	if err != nil {
		return nil, fmt.Errorf("post feedback: %w", err)
	}

	if o.store != nil {
		if err := o.store.Save(ctx, req.Repository, req.PullNumber, posted.State); err != nil {
			// The review is already up; a stale local record is not
			// worth failing the run over.
			log.Printf("warning: failed to save posted-feedback state: %v", err)
		}
	}
	return posted, nil
}

func collectDiagnostics(tools []ToolResult) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, t := range tools {
		diags = append(diags, t.Diagnostics...)
	}
	return diags
}

// toolSummaries tallies each tool's concern count. Diagnostic-producing
// tools count diagnostics; fix-only tools (clang-format) count the files
// they would change.
func toolSummaries(tools []ToolResult) map[string]feedback.ToolSummary {
	summaries := make(map[string]feedback.ToolSummary, len(tools))
	for _, t := range tools {
		total := len(t.Diagnostics)
		if total == 0 {
			total = len(changedFixFiles(t))
		}
		summaries[t.Tool] = feedback.ToolSummary{Total: total, FullPatch: t.FullPatch}
	}
	return summaries
}

func changedFixFiles(t ToolResult) map[string]bool {
	files := map[string]bool{}
	for _, fix := range t.Fixes {
		if fix.Original != fix.Fixed {
			files[fix.File] = true
		}
	}
	for _, p := range t.Patches {
		files[p.File] = true
	}
	return files
}

func splitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", repository)
	}
	return owner, repo, nil
}
