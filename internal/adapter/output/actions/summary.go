package actions

import (
	"fmt"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// BuildStepSummary renders the markdown report for the job step summary
// and the persistent PR comment. Files with concerns are listed per tool,
// collapsed behind details sections.
func BuildStepSummary(counts domain.SummaryCounts, formatFiles, tidyFiles []string) string {
	var sb strings.Builder
	sb.WriteString("# Cpp-Linter Report ")

	if counts.ChecksFailed() == 0 {
		sb.WriteString(":heavy_check_mark:\nNo problems need attention.")
		return sb.String()
	}

	sb.WriteString(":warning:\nSome files did not pass the configured checks!\n")
	if len(formatFiles) > 0 {
		sb.WriteString(fmt.Sprintf(
			"\n<details><summary>clang-format reports: <strong>%d file(s) not formatted</strong></summary>\n\n",
			len(formatFiles)))
		for _, f := range formatFiles {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n</details>")
	}
	if len(tidyFiles) > 0 {
		sb.WriteString(fmt.Sprintf(
			"\n<details><summary>clang-tidy reports: <strong>%d concern(s)</strong></summary>\n\n",
			counts.Diagnostics))
		for _, f := range tidyFiles {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n</details>")
	}
	return sb.String()
}
