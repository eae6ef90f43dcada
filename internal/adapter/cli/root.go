// Package cli wires the cobra command surface to the review pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpp-linter/cpp-linter/internal/adapter/output/actions"
	"github.com/cpp-linter/cpp-linter/internal/adapter/output/console"
	"github.com/cpp-linter/cpp-linter/internal/config"
	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrChecksFailed signals a completed run that found concerns. The host
// process maps it to a non-zero exit without printing a stack of wrapping.
var ErrChecksFailed = errors.New("checks failed")

// Runner executes one analysis run.
type Runner interface {
	Run(ctx context.Context, req review.Request) (*review.Result, error)
}

// SourceOptions tells the host how to construct the diff source and the
// posting collaborators for a run.
type SourceOptions struct {
	Repository         string
	PullNumber         int
	Token              string
	APIURL             string
	RepoDir            string
	BaseRef            string
	TargetRef          string
	IncludeUncommitted bool
	Post               bool
}

// RunnerFactory builds a Runner for the resolved source options. The host
// process implements it; tests substitute a fake.
type RunnerFactory func(opts SourceOptions) (Runner, error)

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	NewRunner RunnerFactory
	Config    config.Config
	Args      Arguments
	Version   string

	// Actions is non-nil when running inside GitHub Actions; Console
	// handles local runs.
	Actions *actions.Writer
	Console *console.Writer
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "cpp-linter",
		Short: "Re-project clang-format and clang-tidy output onto pull request diffs",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(checkCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func checkCommand(deps Dependencies) *cobra.Command {
	cfg := deps.Config

	var (
		toolResultsPath  string
		linesChangedOnly string
		repository       string
		pullNumber       int
		commitSHA        string
		baseRef          string
		targetRef        string
		repoDir          string
		uncommitted      bool

		fileAnnotations bool
		stepSummary     bool
		threadComments  bool
		tidyReview      bool
		formatReview    bool
		noLGTM          bool
		passiveReviews  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one analysis pass and report or post the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := diff.ParseFilterMode(linesChangedOnly)
			if err != nil {
				return err
			}

			tools, err := LoadToolResults(toolResultsPath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("load tool results: %w", err)
			}
			tools = filterToolResults(tools, cfg.Filter.Extensions, cfg.Filter.IgnorePaths)

			post := repository != "" && pullNumber > 0
			runner, err := deps.NewRunner(SourceOptions{
				Repository:         repository,
				PullNumber:         pullNumber,
				Token:              cfg.GitHub.Token,
				APIURL:             cfg.GitHub.APIURL,
				RepoDir:            repoDir,
				BaseRef:            baseRef,
				TargetRef:          targetRef,
				IncludeUncommitted: uncommitted,
				Post:               post,
			})
			if err != nil {
				return err
			}

			result, err := runner.Run(ctx, review.Request{
				Mode:           mode,
				Tools:          tools,
				Repository:     repository,
				PullNumber:     pullNumber,
				CommitSHA:      commitSHA,
				NoLGTM:         noLGTM,
				PassiveReviews: passiveReviews,
				ReviewEnabled:  post && (tidyReview || formatReview),
				ThreadComments: threadComments,
				BotUsername:    "github-actions[bot]",
				Post:           post,
			})
			if err != nil {
				return err
			}

			for _, fault := range result.Faults {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", fault)
			}

			if err := writeOutputs(deps, result, tools, fileAnnotations, stepSummary); err != nil {
				return err
			}

			if result.Bundle.Counts.ChecksFailed() > 0 {
				return ErrChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&toolResultsPath, "tool-results", "-", "Path to the analyzers' JSON output (- for stdin)")
	cmd.Flags().StringVar(&linesChangedOnly, "lines-changed-only", cfg.Filter.LinesChangedOnly, "Restrict feedback to changed lines: none, added-only, or full-diff")
	cmd.Flags().StringVar(&repository, "repository", cfg.GitHub.Repository, "GitHub repository in owner/name form")
	cmd.Flags().IntVar(&pullNumber, "pull-request", cfg.GitHub.PullNumber, "Pull request number")
	cmd.Flags().StringVar(&commitSHA, "commit-sha", cfg.GitHub.CommitSHA, "Head commit SHA the feedback targets")
	cmd.Flags().StringVar(&baseRef, "base", cfg.Git.BaseRef, "Base reference for local diffs")
	cmd.Flags().StringVar(&targetRef, "target", cfg.Git.TargetRef, "Target reference for local diffs (defaults to HEAD)")
	cmd.Flags().StringVar(&repoDir, "repo-dir", cfg.Git.RepositoryDir, "Local repository directory")
	cmd.Flags().BoolVar(&uncommitted, "include-uncommitted", false, "Include uncommitted changes in the local diff")

	cmd.Flags().BoolVar(&fileAnnotations, "file-annotations", cfg.Output.FileAnnotations, "Emit per-line annotations")
	cmd.Flags().BoolVar(&stepSummary, "step-summary", cfg.Output.StepSummary, "Append a markdown report to the workflow step summary")
	cmd.Flags().BoolVar(&threadComments, "thread-comments", cfg.Review.ThreadComments, "Maintain a summary comment on the PR conversation")
	cmd.Flags().BoolVar(&tidyReview, "tidy-review", cfg.Review.TidyReview, "Post clang-tidy suggestions as a PR review")
	cmd.Flags().BoolVar(&formatReview, "format-review", cfg.Review.FormatReview, "Post clang-format suggestions as a PR review")
	cmd.Flags().BoolVar(&noLGTM, "no-lgtm", cfg.Review.NoLGTM, "Suppress the approving review on a clean pass")
	cmd.Flags().BoolVar(&passiveReviews, "passive-reviews", cfg.Review.PassiveReviews, "Post reviews as comments without approving or requesting changes")

	return cmd
}

// writeOutputs renders the bundle through whichever sinks are configured.
// Inside Actions the annotations become workflow commands; locally they go
// to the console writer.
func writeOutputs(deps Dependencies, result *review.Result, tools []review.ToolResult, fileAnnotations, stepSummary bool) error {
	bundle := result.Bundle

	if fileAnnotations {
		if deps.Actions != nil {
			deps.Actions.WriteAnnotations(bundle.Annotations)
		} else if deps.Console != nil {
			deps.Console.WriteAnnotations(bundle.Annotations)
		}
	}

	if deps.Actions != nil {
		if stepSummary {
			summary := actions.BuildStepSummary(bundle.Counts, formatFiles(tools), tidyFiles(tools))
			if err := deps.Actions.AppendStepSummary(summary); err != nil {
				return fmt.Errorf("write step summary: %w", err)
			}
		}
		if err := deps.Actions.WriteOutputs(bundle.Counts); err != nil {
			return fmt.Errorf("write outputs: %w", err)
		}
	}

	if deps.Console != nil {
		deps.Console.WriteSummary(bundle.Counts)
	}
	return nil
}

// formatFiles lists the files clang-format would change, in input order.
func formatFiles(tools []review.ToolResult) []string {
	var files []string
	seen := map[string]bool{}
	for _, t := range tools {
		if t.Tool != domain.ToolClangFormat {
			continue
		}
		for _, fix := range t.Fixes {
			if fix.Original != fix.Fixed && !seen[fix.File] {
				seen[fix.File] = true
				files = append(files, fix.File)
			}
		}
		for _, p := range t.Patches {
			if !seen[p.File] {
				seen[p.File] = true
				files = append(files, p.File)
			}
		}
	}
	return files
}

// tidyFiles lists the files clang-tidy raised concerns in, in input order.
func tidyFiles(tools []review.ToolResult) []string {
	var files []string
	seen := map[string]bool{}
	for _, t := range tools {
		if t.Tool != domain.ToolClangTidy {
			continue
		}
		for _, d := range t.Diagnostics {
			if !seen[d.File] {
				seen[d.File] = true
				files = append(files, d.File)
			}
		}
	}
	return files
}
