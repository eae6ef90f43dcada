package diff

import "fmt"

// MalformedDiffError reports a file section that could not be parsed:
// either its hunk headers disagree with the hunk bodies, or the section
// lacks a recognizable ---/+++ path pair. The failure is local to one
// file; the rest of the diff still parses.
type MalformedDiffError struct {
	Path   string
	Reason string
}

func (e *MalformedDiffError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed diff: %s", e.Reason)
	}
	return fmt.Sprintf("malformed diff for %s: %s", e.Path, e.Reason)
}

// TruncatedFileError reports that the final file section of a truncated
// page was incomplete and has been dropped from the model.
type TruncatedFileError struct {
	Path string
}

func (e *TruncatedFileError) Error() string {
	return fmt.Sprintf("diff for %s truncated by page size limit, file dropped", e.Path)
}

// DuplicateFileError reports that a later page redefined a file path with
// conflicting rename data. The paginated response cannot be trusted, so
// the whole merge is aborted.
type DuplicateFileError struct {
	Path string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("duplicate file %s with conflicting headers across pages", e.Path)
}

// OutOfOrderPageError reports that pages were supplied out of retrieval
// order, detected by a regressing hunk start for the same file. The whole
// merge is aborted.
type OutOfOrderPageError struct {
	Path string
	Page int
}

func (e *OutOfOrderPageError) Error() string {
	return fmt.Sprintf("page %d out of order: hunk start regresses for %s", e.Page, e.Path)
}
