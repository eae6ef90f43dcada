package diff_test

import (
	"testing"

	"github.com/cpp-linter/cpp-linter/internal/diff"
)

func parseOne(t *testing.T, text, path string) *diff.FileDiff {
	t.Helper()
	model, err := diff.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	fd, ok := model.File(path)
	if !ok {
		t.Fatalf("expected %s in model", path)
	}
	return fd
}

func TestEligibleLines_AddedOnly(t *testing.T) {
	fd := parseOne(t, simpleDiff, "src/demo.cpp")

	elig := diff.EligibleLines(fd, diff.FilterAddedOnly)
	if elig.All() {
		t.Fatal("added-only must not be unrestricted")
	}
	if got := elig.Lines(); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected only line 2, got %v", got)
	}
	if elig.Contains(1) {
		t.Error("context line 1 must not be eligible under added-only")
	}
}

func TestEligibleLines_FullDiff(t *testing.T) {
	fd := parseOne(t, simpleDiff, "src/demo.cpp")

	elig := diff.EligibleLines(fd, diff.FilterFullDiff)
	want := []int{1, 2, 3}
	got := elig.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestEligibleLines_None(t *testing.T) {
	fd := parseOne(t, simpleDiff, "src/demo.cpp")

	elig := diff.EligibleLines(fd, diff.FilterNone)
	if !elig.All() {
		t.Fatal("none mode must return the unrestricted sentinel")
	}
	if !elig.Contains(9999) {
		t.Error("unrestricted eligibility must contain every line")
	}
}

// Every added-only eligible line is full-diff eligible too.
func TestEligibleLines_Monotonicity(t *testing.T) {
	text := `diff --git a/m.cpp b/m.cpp
--- a/m.cpp
+++ b/m.cpp
@@ -5,4 +5,5 @@
 ctx
-gone
+repl
+extra
 ctx2
 ctx3
@@ -40,1 +41,2 @@
 tail
+added
`
	fd := parseOne(t, text, "m.cpp")

	added := diff.EligibleLines(fd, diff.FilterAddedOnly)
	full := diff.EligibleLines(fd, diff.FilterFullDiff)
	for _, n := range added.Lines() {
		if !full.Contains(n) {
			t.Errorf("line %d eligible under added-only but not full-diff", n)
		}
	}
}

func TestEligibleLines_RemovedLinesNeverEligible(t *testing.T) {
	text := `diff --git a/r.cpp b/r.cpp
--- a/r.cpp
+++ b/r.cpp
@@ -3,3 +3,2 @@
 ctx
-dropped
 ctx2
`
	fd := parseOne(t, text, "r.cpp")

	full := diff.EligibleLines(fd, diff.FilterFullDiff)
	got := full.Lines()
	want := []int{3, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEligibleLines_BinaryNeverEligible(t *testing.T) {
	text := `diff --git a/logo.png b/logo.png
Binary files a/logo.png and b/logo.png differ
`
	fd := parseOne(t, text, "logo.png")

	for _, mode := range []diff.FilterMode{diff.FilterNone, diff.FilterAddedOnly, diff.FilterFullDiff} {
		elig := diff.EligibleLines(fd, mode)
		if elig.All() || !elig.Empty() {
			t.Errorf("mode %s: binary file must yield empty eligibility", mode)
		}
	}
}

func TestEligibleLines_NilFileUnrestricted(t *testing.T) {
	elig := diff.EligibleLines(nil, diff.FilterAddedOnly)
	if !elig.All() {
		t.Error("untouched file must be unrestricted for analysis")
	}
}

func TestParseFilterMode(t *testing.T) {
	cases := []struct {
		in      string
		want    diff.FilterMode
		wantErr bool
	}{
		{"none", diff.FilterNone, false},
		{"", diff.FilterNone, false},
		{"added-only", diff.FilterAddedOnly, false},
		{"true", diff.FilterAddedOnly, false},
		{"full-diff", diff.FilterFullDiff, false},
		{"diff", diff.FilterFullDiff, false},
		{"bogus", diff.FilterNone, true},
	}
	for _, tc := range cases {
		got, err := diff.ParseFilterMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFilterMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFilterMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFilterMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
