// Package diff implements the unified-diff model that anchors analysis
// feedback onto a pull request's changed-lines view.
//
// A Model is built once per analysis run, either from a single diff text
// (Parse) or from several paginated fragments (Merge), and is immutable
// afterwards. Each file's lines carry dual (old, new) numbering, so
// downstream components can translate tool-reported line numbers into
// addressable review comments.
package diff
