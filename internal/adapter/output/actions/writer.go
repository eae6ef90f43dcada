// Package actions renders run artifacts for GitHub Actions: workflow log
// commands for inline annotations, the job step summary, and the action's
// output variables.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// Writer emits workflow commands and Actions files. Log commands go to
// Out; the step summary and output variables go to the files named by
// GITHUB_STEP_SUMMARY and GITHUB_OUTPUT when those are set.
type Writer struct {
	Out io.Writer

	// SummaryPath and OutputPath override the environment lookups,
	// mainly for tests.
	SummaryPath string
	OutputPath  string
}

// NewWriter returns a Writer targeting stdout and the Actions environment.
func NewWriter() *Writer {
	return &Writer{Out: os.Stdout}
}

// WriteAnnotations prints one workflow log command per annotation.
// The runner turns these into inline file annotations on the checked-out
// sources.
func (w *Writer) WriteAnnotations(annotations []domain.Annotation) {
	for _, a := range annotations {
		fmt.Fprintf(w.Out, "::%s file=%s,line=%d,col=%d,title=%s::%s\n",
			a.Severity, a.File, a.Line, a.Column,
			escapeProperty(a.Title), escapeData(a.Message))
	}
}

// AppendStepSummary appends the run's markdown report to the job summary
// file. Missing configuration is not an error: local runs have no summary
// file.
func (w *Writer) AppendStepSummary(markdown string) error {
	path := w.SummaryPath
	if path == "" {
		path = os.Getenv("GITHUB_STEP_SUMMARY")
	}
	if path == "" {
		return nil
	}
	return appendFile(path, markdown)
}

// WriteOutputs appends the action's output variables, read by downstream
// workflow steps to fail the job on concerns.
func (w *Writer) WriteOutputs(counts domain.SummaryCounts) error {
	path := w.OutputPath
	if path == "" {
		path = os.Getenv("GITHUB_OUTPUT")
	}
	if path == "" {
		return nil
	}
	return appendFile(path, fmt.Sprintf("checks-failed=%d\n", counts.ChecksFailed()))
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Workflow command values need percent-encoding of %, CR and LF; property
// values additionally encode the separators.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	s = strings.ReplaceAll(s, ",", "%2C")
	return s
}
