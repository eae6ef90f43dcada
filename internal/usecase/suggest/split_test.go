package suggest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/suggest"
)

func TestSplitPatch_SingleLineChange(t *testing.T) {
	original := "int main(){\nreturn 0 ;\n}\n"
	fixed := "int main(){\n  return 0;\n}\n"

	patches := suggest.SplitPatch("src/main.cpp", domain.ToolClangFormat, original, fixed)
	require.Len(t, patches, 1)

	assert.Equal(t, "src/main.cpp", patches[0].File)
	assert.Equal(t, 2, patches[0].LineStart)
	assert.Equal(t, 2, patches[0].LineEnd)
	assert.Equal(t, "  return 0;", patches[0].Replacement)
	assert.Equal(t, domain.ToolClangFormat, patches[0].Tool)
}

func TestSplitPatch_SeparateChangesSeparatePatches(t *testing.T) {
	original := "a\nb\nc\nd\ne\n"
	fixed := "A\nb\nc\nd\nE\n"

	patches := suggest.SplitPatch("f.cpp", domain.ToolClangTidy, original, fixed)
	require.Len(t, patches, 2)

	assert.Equal(t, 1, patches[0].LineStart)
	assert.Equal(t, 1, patches[0].LineEnd)
	assert.Equal(t, "A", patches[0].Replacement)

	assert.Equal(t, 5, patches[1].LineStart)
	assert.Equal(t, 5, patches[1].LineEnd)
	assert.Equal(t, "E", patches[1].Replacement)
}

func TestSplitPatch_ConsecutiveChangesCoalesce(t *testing.T) {
	original := "a\nb\nc\nd\n"
	fixed := "a\nB\nC\nd\n"

	patches := suggest.SplitPatch("f.cpp", domain.ToolClangFormat, original, fixed)
	require.Len(t, patches, 1)

	assert.Equal(t, 2, patches[0].LineStart)
	assert.Equal(t, 3, patches[0].LineEnd)
	assert.Equal(t, "B\nC", patches[0].Replacement)
}

func TestSplitPatch_Deletion(t *testing.T) {
	original := "a\nb\nc\n"
	fixed := "a\nc\n"

	patches := suggest.SplitPatch("f.cpp", domain.ToolClangTidy, original, fixed)
	require.Len(t, patches, 1)

	assert.Equal(t, 2, patches[0].LineStart)
	assert.Equal(t, 2, patches[0].LineEnd)
	assert.Equal(t, "", patches[0].Replacement)
}

// Pure insertions anchor to the preceding original line and re-emit it so
// the replacement stays a valid substitution for an existing line.
func TestSplitPatch_InsertionAnchorsToPrecedingLine(t *testing.T) {
	original := "a\nb\nc\n"
	fixed := "a\nb\nX\nc\n"

	patches := suggest.SplitPatch("f.cpp", domain.ToolClangTidy, original, fixed)
	require.Len(t, patches, 1)

	assert.Equal(t, 2, patches[0].LineStart)
	assert.Equal(t, 2, patches[0].LineEnd)
	assert.Equal(t, "b\nX", patches[0].Replacement)
}

func TestSplitPatch_InsertionAtFileStart(t *testing.T) {
	original := "b\n"
	fixed := "X\nb\n"

	patches := suggest.SplitPatch("f.cpp", domain.ToolClangFormat, original, fixed)
	require.Len(t, patches, 1)

	assert.Equal(t, 1, patches[0].LineStart)
	assert.Equal(t, 1, patches[0].LineEnd)
	assert.Equal(t, "X\nb", patches[0].Replacement)
}

func TestSplitPatch_IdenticalInput(t *testing.T) {
	content := "a\nb\nc\n"
	patches := suggest.SplitPatch("f.cpp", domain.ToolClangFormat, content, content)
	assert.Empty(t, patches)
}

func TestSplitPatch_EmptyOriginal(t *testing.T) {
	patches := suggest.SplitPatch("f.cpp", domain.ToolClangFormat, "", "a\nb\n")
	require.Len(t, patches, 1)
	assert.Equal(t, 1, patches[0].LineStart)
}
