// Package console renders annotations and run summaries for local
// terminal runs, styled when stdout is a TTY and plain otherwise.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B949E"))
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
)

// Writer prints annotations to a terminal.
type Writer struct {
	out    io.Writer
	styled bool
}

// NewWriter returns a console writer on stdout. Styling is enabled only
// when stdout is a terminal, so piped output stays machine-readable.
func NewWriter() *Writer {
	return &Writer{
		out:    os.Stdout,
		styled: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// NewWriterTo returns a writer on an explicit sink with explicit styling,
// for tests and forced-color environments.
func NewWriterTo(out io.Writer, styled bool) *Writer {
	return &Writer{out: out, styled: styled}
}

// WriteAnnotations prints one line per annotation:
//
//	src/a.cpp:12:5: warning: use nullptr [modernize-use-nullptr]
func (w *Writer) WriteAnnotations(annotations []domain.Annotation) {
	for _, a := range annotations {
		location := fmt.Sprintf("%s:%d:%d:", a.File, a.Line, a.Column)
		severity := a.Severity + ":"
		if w.styled {
			location = fileStyle.Render(location)
			severity = severityStyle(a.Severity).Render(severity)
		}
		fmt.Fprintf(w.out, "%s %s %s\n", location, severity, a.Message)
	}
}

// WriteSummary prints the closing tally for the run.
func (w *Writer) WriteSummary(counts domain.SummaryCounts) {
	if counts.ChecksFailed() == 0 {
		line := "No problems need attention."
		if w.styled {
			line = okStyle.Render(line)
		}
		fmt.Fprintln(w.out, line)
		return
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d concern(s)", counts.ChecksFailed()))
	if counts.Suggestions > 0 {
		parts = append(parts, fmt.Sprintf("%d suggestion(s)", counts.Suggestions))
	}
	if counts.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d outside the diff", counts.Skipped))
	}
	line := strings.Join(parts, ", ")
	if w.styled {
		line = warnStyle.Render(line)
	}
	fmt.Fprintln(w.out, line)
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case domain.SeverityError:
		return errorStyle
	case domain.SeverityWarning:
		return warnStyle
	default:
		return noticeStyle
	}
}
