package diff

import (
	"fmt"
	"sort"
)

// FilterMode selects which lines of a changed file are in scope for
// analysis and feedback placement.
type FilterMode int

const (
	// FilterNone places no restriction: every line of the file is in scope.
	FilterNone FilterMode = iota
	// FilterAddedOnly restricts scope to lines introduced by the change.
	FilterAddedOnly
	// FilterFullDiff restricts scope to every line visible in the diff,
	// added or context, never removed.
	FilterFullDiff
)

// ParseFilterMode converts the CLI/config spelling of a filter mode.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "none", "false", "":
		return FilterNone, nil
	case "added-only", "true":
		return FilterAddedOnly, nil
	case "full-diff", "diff":
		return FilterFullDiff, nil
	}
	return FilterNone, fmt.Errorf("unknown lines-changed-only mode %q", s)
}

func (m FilterMode) String() string {
	switch m {
	case FilterAddedOnly:
		return "added-only"
	case FilterFullDiff:
		return "full-diff"
	default:
		return "none"
	}
}

// Eligibility is the set of new-side line numbers in scope for one file.
// The unrestricted sentinel (All) means every line passes without the set
// being materialized, since the model does not track file lengths.
type Eligibility struct {
	all   bool
	lines map[int]bool
}

// Unrestricted returns the sentinel eligibility under which all lines pass.
func Unrestricted() Eligibility {
	return Eligibility{all: true}
}

// All reports whether this is the unrestricted sentinel.
func (e Eligibility) All() bool { return e.all }

// Contains reports whether the given new-side line number is in scope.
func (e Eligibility) Contains(line int) bool {
	if e.all {
		return true
	}
	return e.lines[line]
}

// Empty reports whether no line is eligible.
func (e Eligibility) Empty() bool {
	return !e.all && len(e.lines) == 0
}

// Lines returns the materialized line numbers in ascending order. It is
// empty for the unrestricted sentinel; callers must check All first.
func (e Eligibility) Lines() []int {
	out := make([]int, 0, len(e.lines))
	for n := range e.lines {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// EligibleLines computes the in-scope line set for one file under the
// given mode. Binary files are never eligible, whatever the mode. A nil
// FileDiff (file untouched by the change set) is unrestricted for
// analysis purposes but can never host a diff-anchored comment; callers
// resolve that distinction.
func EligibleLines(fd *FileDiff, mode FilterMode) Eligibility {
	if fd == nil {
		return Unrestricted()
	}
	if fd.IsBinary {
		return Eligibility{lines: map[int]bool{}}
	}
	if mode == FilterNone {
		return Unrestricted()
	}
	lines := make(map[int]bool)
	for i := range fd.Hunks {
		for _, line := range fd.Hunks[i].Lines {
			switch line.Kind {
			case LineAdded:
				lines[*line.NewLine] = true
			case LineContext:
				if mode == FilterFullDiff {
					lines[*line.NewLine] = true
				}
			}
		}
	}
	return Eligibility{lines: lines}
}
