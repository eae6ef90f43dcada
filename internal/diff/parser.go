package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies one line of a unified diff hunk.
type LineKind int

const (
	// LineContext is an unchanged line (prefix ' '), present in both versions.
	LineContext LineKind = iota
	// LineAdded is a line introduced by the change (prefix '+').
	LineAdded
	// LineRemoved is a line deleted by the change (prefix '-').
	LineRemoved
)

// Line is a single line in a diff hunk. Context lines carry both line
// numbers; added lines only a new-side number; removed lines only an
// old-side number.
type Line struct {
	Kind    LineKind
	Content string
	OldLine *int // nil for added lines
	NewLine *int // nil for removed lines
}

// Hunk is one contiguous @@ block of a file's diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the parsed diff for a single file.
type FileDiff struct {
	OldPath   string
	NewPath   string
	Hunks     []Hunk
	IsBinary  bool
	IsRenamed bool
	Additions int
	Deletions int
}

// HasNewLine reports whether the given new-side line number appears in the
// diff as a non-removed line. These are the only lines the host review API
// can anchor a comment to.
func (fd *FileDiff) HasNewLine(n int) bool {
	for i := range fd.Hunks {
		h := &fd.Hunks[i]
		if n < h.NewStart || n >= h.NewStart+h.NewCount {
			continue
		}
		for _, line := range h.Lines {
			if line.NewLine != nil && *line.NewLine == n {
				return true
			}
		}
	}
	return false
}

// Model holds every file's diff for one analysis run, keyed by new path,
// in diff appearance order. It is grown during parsing/merging and frozen
// before any filtering runs against it.
type Model struct {
	files  []*FileDiff
	byPath map[string]*FileDiff
	faults []error
	frozen bool
}

func newModel() *Model {
	return &Model{byPath: make(map[string]*FileDiff)}
}

// Files returns the file diffs in diff appearance order.
func (m *Model) Files() []*FileDiff { return m.files }

// File looks up a file's diff by its new path.
func (m *Model) File(path string) (*FileDiff, bool) {
	fd, ok := m.byPath[path]
	return fd, ok
}

// Faults returns the file-local parse failures recorded while building the
// model. Faulted files are excluded from the model but do not abort a run.
func (m *Model) Faults() []error { return m.faults }

func (m *Model) add(fd *FileDiff) {
	if m.frozen {
		panic("diff: add to frozen model")
	}
	if _, exists := m.byPath[fd.NewPath]; exists {
		return
	}
	m.files = append(m.files, fd)
	m.byPath[fd.NewPath] = fd
}

func (m *Model) recordFault(err error) {
	m.faults = append(m.faults, err)
}

func (m *Model) freeze() { m.frozen = true }

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse parses unified-diff text into a Model in a single linear pass.
//
// File sections that cannot be parsed (hunk counts disagreeing with the
// header, or a missing ---/+++ path pair) are excluded from the model and
// recorded as MalformedDiffError faults; the remaining files still parse.
// Deleted files are omitted entirely because only current file content can
// receive feedback.
func Parse(text string) (*Model, error) {
	return parse(text, false)
}

func parse(text string, truncatedTail bool) (*Model, error) {
	model := newModel()
	if strings.TrimSpace(text) == "" {
		model.freeze()
		return model, nil
	}

	sections := splitFileSections(text)
	for i, section := range sections {
		fd, err := parseFileSection(section)
		if err != nil {
			if truncatedTail && i == len(sections)-1 {
				err = &TruncatedFileError{Path: sectionPathHint(section)}
			}
			model.recordFault(err)
			continue
		}
		if fd == nil {
			continue // deleted file
		}
		model.add(fd)
	}
	model.freeze()
	return model, nil
}

// splitFileSections groups raw diff lines into per-file sections. A new
// section starts at each "diff --git" header, or at a "--- " line when the
// previous hunk body has been fully consumed (bare sections without the
// git header appear in synthesized per-file fragments).
func splitFileSections(text string) [][]string {
	lines := strings.Split(text, "\n")
	var sections [][]string
	var current []string
	pendingHunkLines := 0

	flush := func() {
		if len(current) > 0 {
			sections = append(sections, current)
			current = nil
		}
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			pendingHunkLines = 0
		case strings.HasPrefix(line, "--- ") && pendingHunkLines == 0 && sectionHasHunks(current):
			flush()
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				oldCount := headerCount(m[2])
				newCount := headerCount(m[4])
				pendingHunkLines = oldCount + newCount
			}
		case pendingHunkLines > 0 && len(line) > 0:
			switch line[0] {
			case '+', '-':
				pendingHunkLines--
			case ' ':
				pendingHunkLines -= 2
			}
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func sectionHasHunks(section []string) bool {
	for _, line := range section {
		if strings.HasPrefix(line, "@@") {
			return true
		}
	}
	return false
}

func headerCount(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// sectionPathHint extracts a best-effort path for fault messages from a
// section that failed to parse.
func sectionPathHint(section []string) string {
	for _, line := range section {
		if strings.HasPrefix(line, "+++ ") {
			return stripPathPrefix(strings.TrimPrefix(line, "+++ "))
		}
		if strings.HasPrefix(line, "diff --git ") {
			if _, newPath, ok := parseGitHeaderPaths(line); ok {
				return newPath
			}
		}
	}
	return ""
}

// parseFileSection parses one file's lines. Returns (nil, nil) for deleted
// files, which are deliberately omitted from the model.
func parseFileSection(section []string) (*FileDiff, error) {
	fd := &FileDiff{}
	sawOldPath := false
	sawNewPath := false

	var currentHunk *Hunk
	oldCursor, newCursor := 0, 0
	oldSeen, newSeen := 0, 0

	closeHunk := func() error {
		if currentHunk == nil {
			return nil
		}
		if oldSeen != currentHunk.OldCount || newSeen != currentHunk.NewCount {
			return &MalformedDiffError{
				Path:   fd.NewPath,
				Reason: "hunk body disagrees with declared line counts",
			}
		}
		fd.Hunks = append(fd.Hunks, *currentHunk)
		currentHunk = nil
		return nil
	}

	// hunkOpen is true while the current hunk body has not yet consumed
	// the line counts its header declared. Body lines take precedence over
	// header-looking lines then, so a removed line starting with "-- " is
	// not mistaken for a file header.
	hunkOpen := func() bool {
		return currentHunk != nil &&
			(oldSeen < currentHunk.OldCount || newSeen < currentHunk.NewCount)
	}

	for _, raw := range section {
		if hunkOpen() && len(raw) > 0 && !strings.HasPrefix(raw, "@@") {
			switch raw[0] {
			case '+':
				n := newCursor
				currentHunk.Lines = append(currentHunk.Lines, Line{
					Kind:    LineAdded,
					Content: raw[1:],
					NewLine: &n,
				})
				newCursor++
				newSeen++
				fd.Additions++
			case '-':
				o := oldCursor
				currentHunk.Lines = append(currentHunk.Lines, Line{
					Kind:    LineRemoved,
					Content: raw[1:],
					OldLine: &o,
				})
				oldCursor++
				oldSeen++
				fd.Deletions++
			case ' ':
				o, n := oldCursor, newCursor
				currentHunk.Lines = append(currentHunk.Lines, Line{
					Kind:    LineContext,
					Content: raw[1:],
					OldLine: &o,
					NewLine: &n,
				})
				oldCursor++
				oldSeen++
				newCursor++
				newSeen++
			case '\\':
				// "\ No newline at end of file"
			default:
				return nil, &MalformedDiffError{
					Path:   fd.NewPath,
					Reason: "unexpected line inside hunk body: " + raw,
				}
			}
			continue
		}

		switch {
		case strings.HasPrefix(raw, "diff --git "):
			if oldPath, newPath, ok := parseGitHeaderPaths(raw); ok {
				fd.OldPath, fd.NewPath = oldPath, newPath
			}
		case strings.HasPrefix(raw, "rename from "):
			fd.IsRenamed = true
			fd.OldPath = strings.TrimPrefix(raw, "rename from ")
		case strings.HasPrefix(raw, "rename to "):
			fd.IsRenamed = true
			fd.NewPath = strings.TrimPrefix(raw, "rename to ")
		case strings.HasPrefix(raw, "Binary files ") || strings.HasPrefix(raw, "GIT binary patch"):
			fd.IsBinary = true
		case strings.HasPrefix(raw, "--- "):
			fd.OldPath = stripPathPrefix(strings.TrimPrefix(raw, "--- "))
			sawOldPath = true
		case strings.HasPrefix(raw, "+++ "):
			fd.NewPath = stripPathPrefix(strings.TrimPrefix(raw, "+++ "))
			sawNewPath = true
		case strings.HasPrefix(raw, "@@"):
			if err := closeHunk(); err != nil {
				return nil, err
			}
			m := hunkHeaderRe.FindStringSubmatch(raw)
			if m == nil {
				return nil, &MalformedDiffError{Path: fd.NewPath, Reason: "unparseable hunk header: " + raw}
			}
			currentHunk = &Hunk{
				OldStart: mustAtoi(m[1]),
				OldCount: headerCount(m[2]),
				NewStart: mustAtoi(m[3]),
				NewCount: headerCount(m[4]),
			}
			oldCursor = currentHunk.OldStart
			newCursor = currentHunk.NewStart
			oldSeen, newSeen = 0, 0
		}
	}
	if err := closeHunk(); err != nil {
		return nil, err
	}

	if fd.NewPath == "/dev/null" {
		return nil, nil // deleted file
	}
	if fd.IsBinary {
		fd.Hunks = nil
		if fd.NewPath == "" {
			return nil, &MalformedDiffError{Reason: "binary file section without a path"}
		}
		return fd, nil
	}
	if len(fd.Hunks) == 0 && (fd.IsRenamed || fd.NewPath != "") {
		// Renamed (or mode-changed) file with no content change: kept in
		// the model so downstream filtering skips it deliberately.
		if fd.NewPath == "" {
			return nil, &MalformedDiffError{Reason: "file section without a path pair"}
		}
		return fd, nil
	}
	if !sawOldPath || !sawNewPath || fd.NewPath == "" {
		return nil, &MalformedDiffError{Path: fd.NewPath, Reason: "missing ---/+++ path pair"}
	}
	if fd.OldPath == "/dev/null" {
		fd.OldPath = fd.NewPath
	}
	return fd, nil
}

// parseGitHeaderPaths extracts old and new paths from a
// "diff --git a/old b/new" header line.
func parseGitHeaderPaths(line string) (oldPath, newPath string, ok bool) {
	rest := strings.TrimPrefix(line, "diff --git ")
	idx := strings.Index(rest, " b/")
	if idx < 0 || !strings.HasPrefix(rest, "a/") {
		return "", "", false
	}
	return rest[2:idx], rest[idx+3:], true
}

func stripPathPrefix(p string) string {
	p = strings.TrimSuffix(p, "\t")
	if p == "/dev/null" {
		return p
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
