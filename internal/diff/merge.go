package diff

// Page is one fragment of a paginated diff retrieval. Truncated marks a
// final page whose last file section may have been cut short by the
// remote API's size limit; the caller learns this from an explicit flag,
// it is never inferred from content.
type Page struct {
	Text      string
	Truncated bool
}

// Merge assembles diff pages, supplied in retrieval order, into a single
// frozen Model. Each page must be a syntactically complete set of whole
// file sections (pages never split a hunk mid-body), except that a
// truncated final page may drop its last file's trailing lines.
//
// File sections are unioned by new path, preferring the first-seen diff
// for a path. A later page redefining a path with conflicting rename data
// aborts the merge with DuplicateFileError; a regressing hunk start for an
// already-seen path aborts with OutOfOrderPageError. Both are fatal
// because a partially-merged diff could silently mis-anchor every
// subsequent suggestion.
func Merge(pages []Page) (*Model, error) {
	merged := newModel()
	for i, page := range pages {
		pageModel, err := parse(page.Text, page.Truncated)
		if err != nil {
			return nil, err
		}
		for _, fault := range pageModel.Faults() {
			merged.recordFault(fault)
		}
		for _, fd := range pageModel.Files() {
			existing, seen := merged.byPath[fd.NewPath]
			if !seen {
				merged.add(fd)
				continue
			}
			if existing.OldPath != fd.OldPath || existing.IsRenamed != fd.IsRenamed {
				return nil, &DuplicateFileError{Path: fd.NewPath}
			}
			if regresses(existing, fd) {
				return nil, &OutOfOrderPageError{Path: fd.NewPath, Page: i + 1}
			}
			// Consistent redefinition: keep the first-seen file diff.
		}
	}
	merged.freeze()
	return merged, nil
}

// regresses reports whether a later page's hunks start before the hunks
// already recorded for the same file, the detectable symptom of pages
// supplied out of retrieval order.
func regresses(existing, later *FileDiff) bool {
	if len(existing.Hunks) == 0 || len(later.Hunks) == 0 {
		return false
	}
	lastSeen := existing.Hunks[len(existing.Hunks)-1].OldStart
	return later.Hunks[0].OldStart < lastSeen
}
