package suggest

import (
	"sync"

	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// Result collects the outcome of re-projecting one run's patches.
type Result struct {
	// Suggestions are ordered by file appearance in the diff model, then
	// by tool emission order within each file. Overlapping suggestions
	// are all retained in emission order; conflict resolution is left to
	// the human reviewer.
	Suggestions []domain.Suggestion
	Skipped     int
	Truncated   int
	// Faults holds the UnanchorableError instances recorded while
	// re-projecting. They are informational; the run continues.
	Faults []error
}

// ReprojectAll re-projects every patch against the frozen diff model.
//
// Files are processed concurrently: per-file work shares no mutable state
// and the model is read-only at this stage. Collection into the final
// ordered result is a single-writer merge so the output order is stable
// run to run.
func ReprojectAll(patches []domain.SuggestedPatch, model *diff.Model, mode diff.FilterMode) Result {
	byFile := make(map[string][]domain.SuggestedPatch)
	var fileOrder []string
	for _, p := range patches {
		if _, seen := byFile[p.File]; !seen {
			fileOrder = append(fileOrder, p.File)
		}
		byFile[p.File] = append(byFile[p.File], p)
	}

	type fileResult struct {
		suggestions []domain.Suggestion
		skipped     int
		truncated   int
		faults      []error
	}
	results := make(map[string]*fileResult, len(byFile))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, file := range fileOrder {
		wg.Add(1)
		go func(file string, filePatches []domain.SuggestedPatch) {
			defer wg.Done()

			fd, _ := model.File(file)
			elig := diff.EligibleLines(fd, mode)

			fr := &fileResult{}
			for _, patch := range filePatches {
				suggestion, skipped, err := Reproject(patch, fd, elig)
				if err != nil {
					fr.faults = append(fr.faults, err)
				}
				if skipped {
					fr.skipped++
					continue
				}
				if suggestion.Truncated {
					fr.truncated++
				}
				fr.suggestions = append(fr.suggestions, suggestion)
			}

			mu.Lock()
			results[file] = fr
			mu.Unlock()
		}(file, byFile[file])
	}
	wg.Wait()

	// Global ordering: files by first appearance in the model, then any
	// patched files absent from the model (skip counts only), in patch
	// emission order.
	var ordered []string
	inModel := make(map[string]bool)
	for _, fd := range model.Files() {
		if _, ok := results[fd.NewPath]; ok {
			ordered = append(ordered, fd.NewPath)
			inModel[fd.NewPath] = true
		}
	}
	for _, file := range fileOrder {
		if !inModel[file] {
			ordered = append(ordered, file)
		}
	}

	var out Result
	for _, file := range ordered {
		fr := results[file]
		out.Suggestions = append(out.Suggestions, fr.suggestions...)
		out.Skipped += fr.skipped
		out.Truncated += fr.truncated
		out.Faults = append(out.Faults, fr.faults...)
	}
	return out
}
