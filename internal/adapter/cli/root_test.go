package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpp-linter/cpp-linter/internal/adapter/output/console"
	"github.com/cpp-linter/cpp-linter/internal/config"
	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/review"
)

type fakeRunner struct {
	req    *review.Request
	result *review.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, req review.Request) (*review.Result, error) {
	f.req = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func writeToolResults(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const tidyResults = `[
  {
    "tool": "clang-tidy",
    "diagnostics": [
      {"file": "src/a.cpp", "line": 6, "column": 2, "severity": "warning", "message": "narrowing", "ruleId": "bugprone-narrowing", "tool": "clang-tidy"}
    ],
    "patches": [
      {"file": "src/a.cpp", "lineStart": 6, "lineEnd": 6, "replacement": "int x = 0;"}
    ]
  }
]`

func defaultConfig() config.Config {
	cfg := config.Config{}
	cfg.Filter.LinesChangedOnly = "none"
	cfg.Output.FileAnnotations = true
	return cfg
}

func newTestCommand(runner *fakeRunner, cfg config.Config) (*bytes.Buffer, *bytes.Buffer, Dependencies) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	deps := Dependencies{
		NewRunner: func(SourceOptions) (Runner, error) { return runner, nil },
		Config:    cfg,
		Args:      Arguments{OutWriter: out, ErrWriter: errOut},
		Console:   console.NewWriterTo(out, false),
		Version:   "v1.2.3",
	}
	return out, errOut, deps
}

func TestCheck_CleanRunExitsClean(t *testing.T) {
	runner := &fakeRunner{result: &review.Result{}}
	out, _, deps := newTestCommand(runner, defaultConfig())
	root := NewRootCommand(deps)

	path := writeToolResults(t, `[{"tool": "clang-tidy"}]`)
	root.SetArgs([]string{"check", "--tool-results", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "No problems need attention.")
	require.NotNil(t, runner.req)
	assert.Equal(t, diff.FilterNone, runner.req.Mode)
}

func TestCheck_ConcernsReturnErrChecksFailed(t *testing.T) {
	runner := &fakeRunner{result: &review.Result{
		Bundle: domain.OutputBundle{
			Annotations: []domain.Annotation{
				{File: "src/a.cpp", Line: 6, Severity: "warning", Message: "narrowing"},
			},
			Counts: domain.SummaryCounts{Diagnostics: 1},
		},
	}}
	out, _, deps := newTestCommand(runner, defaultConfig())
	root := NewRootCommand(deps)

	path := writeToolResults(t, tidyResults)
	root.SetArgs([]string{"check", "--tool-results", path})

	err := root.Execute()
	require.ErrorIs(t, err, ErrChecksFailed)
	assert.Contains(t, out.String(), "src/a.cpp:6")
}

func TestCheck_FlagsReachTheRequest(t *testing.T) {
	runner := &fakeRunner{result: &review.Result{}}
	_, _, deps := newTestCommand(runner, defaultConfig())
	root := NewRootCommand(deps)

	path := writeToolResults(t, `[{"tool": "clang-format"}]`)
	root.SetArgs([]string{
		"check",
		"--tool-results", path,
		"--lines-changed-only", "added-only",
		"--repository", "octo/widgets",
		"--pull-request", "12",
		"--commit-sha", "abc123",
		"--format-review",
		"--no-lgtm",
		"--passive-reviews",
		"--thread-comments",
	})

	require.NoError(t, root.Execute())
	require.NotNil(t, runner.req)
	assert.Equal(t, diff.FilterAddedOnly, runner.req.Mode)
	assert.Equal(t, "octo/widgets", runner.req.Repository)
	assert.Equal(t, 12, runner.req.PullNumber)
	assert.Equal(t, "abc123", runner.req.CommitSHA)
	assert.True(t, runner.req.ReviewEnabled)
	assert.True(t, runner.req.NoLGTM)
	assert.True(t, runner.req.PassiveReviews)
	assert.True(t, runner.req.ThreadComments)
	assert.True(t, runner.req.Post)
}

func TestCheck_NoPullRequestMeansNoPosting(t *testing.T) {
	runner := &fakeRunner{result: &review.Result{}}
	_, _, deps := newTestCommand(runner, defaultConfig())
	root := NewRootCommand(deps)

	path := writeToolResults(t, `[{"tool": "clang-tidy"}]`)
	root.SetArgs([]string{"check", "--tool-results", path, "--tidy-review"})

	require.NoError(t, root.Execute())
	assert.False(t, runner.req.Post)
	assert.False(t, runner.req.ReviewEnabled)
}

func TestCheck_BadFilterModeFails(t *testing.T) {
	runner := &fakeRunner{result: &review.Result{}}
	_, _, deps := newTestCommand(runner, defaultConfig())
	root := NewRootCommand(deps)

	root.SetArgs([]string{"check", "--tool-results", "-", "--lines-changed-only", "bogus"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lines-changed-only")
}

func TestRoot_VersionFlag(t *testing.T) {
	out, _, deps := newTestCommand(&fakeRunner{}, defaultConfig())
	root := NewRootCommand(deps)

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	require.ErrorIs(t, err, ErrVersionRequested)
	assert.Contains(t, out.String(), "v1.2.3")
}

func TestLoadToolResults_RejectsMissingToolName(t *testing.T) {
	path := writeToolResults(t, `[{"diagnostics": []}]`)
	_, err := LoadToolResults(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tool name")
}

func TestFilterToolResults(t *testing.T) {
	tools := []review.ToolResult{{
		Tool: domain.ToolClangTidy,
		Diagnostics: []domain.Diagnostic{
			{File: "src/a.cpp", Line: 1},
			{File: "src/gen.pb.cc", Line: 2},
			{File: "third_party/vendor.cpp", Line: 3},
			{File: "README.md", Line: 4},
		},
	}}

	filtered := filterToolResults(tools, []string{"cpp", "cc"}, []string{"third_party"})
	require.Len(t, filtered, 1)
	require.Len(t, filtered[0].Diagnostics, 2)
	assert.Equal(t, "src/a.cpp", filtered[0].Diagnostics[0].File)
	assert.Equal(t, "src/gen.pb.cc", filtered[0].Diagnostics[1].File)
}
