package diff_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/cpp-linter/cpp-linter/internal/diff"
)

const pageOne = `diff --git a/alpha.cpp b/alpha.cpp
--- a/alpha.cpp
+++ b/alpha.cpp
@@ -1,2 +1,3 @@
 int a;
+int b;
 int c;
`

const pageTwo = `diff --git a/beta.cpp b/beta.cpp
--- a/beta.cpp
+++ b/beta.cpp
@@ -7,1 +8,2 @@
 void g();
+void h();
`

func TestMerge_UnionsPagesInOrder(t *testing.T) {
	model, err := diff.Merge([]diff.Page{{Text: pageOne}, {Text: pageTwo}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	files := model.Files()
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].NewPath != "alpha.cpp" || files[1].NewPath != "beta.cpp" {
		t.Errorf("files out of order: %s, %s", files[0].NewPath, files[1].NewPath)
	}
}

// Splitting a diff at file-section boundaries must produce the same model
// as parsing the unsplit text directly.
func TestMerge_EquivalentToSingleParse(t *testing.T) {
	whole := pageOne + pageTwo

	direct, err := diff.Parse(whole)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	merged, err := diff.Merge([]diff.Page{{Text: pageOne}, {Text: pageTwo}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if len(direct.Files()) != len(merged.Files()) {
		t.Fatalf("file count differs: %d vs %d", len(direct.Files()), len(merged.Files()))
	}
	for i, want := range direct.Files() {
		got := merged.Files()[i]
		if got.NewPath != want.NewPath {
			t.Errorf("file %d: path %s vs %s", i, got.NewPath, want.NewPath)
		}
		if len(got.Hunks) != len(want.Hunks) {
			t.Errorf("file %d: hunk count %d vs %d", i, len(got.Hunks), len(want.Hunks))
			continue
		}
		for j := range want.Hunks {
			if got.Hunks[j].NewStart != want.Hunks[j].NewStart ||
				len(got.Hunks[j].Lines) != len(want.Hunks[j].Lines) {
				t.Errorf("file %d hunk %d differs", i, j)
			}
		}
	}
}

func TestMerge_DuplicateFileConflict(t *testing.T) {
	conflicting := `diff --git a/renamed.cpp b/alpha.cpp
rename from renamed.cpp
rename to alpha.cpp
--- a/renamed.cpp
+++ b/alpha.cpp
@@ -1,1 +1,2 @@
 int a;
+int z;
`
	_, err := diff.Merge([]diff.Page{{Text: pageOne}, {Text: conflicting}})
	var dup *diff.DuplicateFileError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateFileError, got %v", err)
	}
	if dup.Path != "alpha.cpp" {
		t.Errorf("duplicate path = %s, want alpha.cpp", dup.Path)
	}
}

func TestMerge_OutOfOrderPage(t *testing.T) {
	later := `diff --git a/alpha.cpp b/alpha.cpp
--- a/alpha.cpp
+++ b/alpha.cpp
@@ -40,1 +41,2 @@
 tail
+more
`
	earlier := `diff --git a/alpha.cpp b/alpha.cpp
--- a/alpha.cpp
+++ b/alpha.cpp
@@ -1,1 +1,2 @@
 head
+first
`
	_, err := diff.Merge([]diff.Page{{Text: later}, {Text: earlier}})
	var ooo *diff.OutOfOrderPageError
	if !errors.As(err, &ooo) {
		t.Fatalf("expected OutOfOrderPageError, got %v", err)
	}
	if ooo.Page != 2 {
		t.Errorf("page = %d, want 2", ooo.Page)
	}
}

func TestMerge_ConsistentDuplicateKeepsFirst(t *testing.T) {
	duplicate := `diff --git a/alpha.cpp b/alpha.cpp
--- a/alpha.cpp
+++ b/alpha.cpp
@@ -10,1 +11,2 @@
 later
+hunk
`
	model, err := diff.Merge([]diff.Page{{Text: pageOne}, {Text: duplicate}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	fd, _ := model.File("alpha.cpp")
	if len(fd.Hunks) != 1 || fd.Hunks[0].NewStart != 1 {
		t.Error("first-seen file diff must win on consistent duplicates")
	}
}

func TestMerge_TruncatedFinalPage(t *testing.T) {
	// beta.cpp's hunk body was cut short by the page size limit.
	truncated := strings.TrimSuffix(pageTwo, "+void h();\n")

	model, err := diff.Merge([]diff.Page{
		{Text: pageOne},
		{Text: truncated, Truncated: true},
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if _, ok := model.File("beta.cpp"); ok {
		t.Error("truncated file must be dropped from the model")
	}
	if _, ok := model.File("alpha.cpp"); !ok {
		t.Error("complete files must survive a truncated page")
	}

	faults := model.Faults()
	if len(faults) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(faults))
	}
	var trunc *diff.TruncatedFileError
	if !errors.As(faults[0], &trunc) {
		t.Fatalf("expected TruncatedFileError, got %T", faults[0])
	}
	if trunc.Path != "beta.cpp" {
		t.Errorf("fault path = %s, want beta.cpp", trunc.Path)
	}
}
