package feedback

import (
	"fmt"
	"sort"
	"strings"
)

// CommentMarker is a hidden HTML comment prepended to every review body so
// later runs can recognize feedback they posted themselves.
const CommentMarker = "<!-- cpp-linter review -->\n"

const userOutreach = "\n\nHave any feedback or feature suggestions? [Share it here.]" +
	"(https://github.com/cpp-linter/cpp-linter/issues)"

// buildSummaryBody renders the markdown body of the aggregated review.
// Tool sections come out in sorted name order so identical requests render
// byte-identical bodies.
func buildSummaryBody(req AggregateRequest, clean bool) string {
	var sb strings.Builder
	sb.WriteString(CommentMarker)
	sb.WriteString("## Cpp-linter Review\n")

	posted := postedPerTool(req)
	for _, tool := range sortedToolNames(req.Tools) {
		summary := req.Tools[tool]
		if summary.Total == 0 {
			sb.WriteString(fmt.Sprintf("No concerns from %s.\n", tool))
			continue
		}
		if posted[tool] != summary.Total {
			sb.WriteString(fmt.Sprintf(
				"Only %d out of %d %s concerns fit within this pull request's diff.\n",
				posted[tool], summary.Total, tool))
		}
		if summary.FullPatch != "" {
			sb.WriteString(fmt.Sprintf(
				"\n<details><summary>Click here for the full %s patch</summary>\n\n\n"+
					"```diff\n%s\n```\n\n\n</details>\n\n",
				tool, summary.FullPatch))
		}
	}

	if clean {
		sb.WriteString("\nGreat job! :tada:")
	}
	sb.WriteString(userOutreach)
	return sb.String()
}

func postedPerTool(req AggregateRequest) map[string]int {
	posted := make(map[string]int, len(req.Tools))
	for _, s := range req.Suggestions {
		posted[s.Tool]++
	}
	return posted
}

func sortedToolNames(tools map[string]ToolSummary) []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
