// Package github talks to the GitHub REST API for everything one linter
// run needs: pull request diff retrieval (raw or paginated with synthesis
// back into diff pages), review creation and dismissal, and the persistent
// conversation comment.
//
// The adapter keeps platform concerns out of the domain layer: suggestions
// arrive as domain.Suggestion values with validated diff anchors and leave
// as review comments addressed with line/start_line on the RIGHT side.
package github
