package kmersig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFuncComment(t *testing.T) {
	fn, delim, comment := splitFuncComment("Some enzyme  # frag, missing start")
	assert.Equal(t, "Some enzyme", fn)
	assert.Equal(t, "#", delim)
	assert.Equal(t, "frag, missing start", comment)

	fn, delim, comment = splitFuncComment("Some enzyme")
	assert.Equal(t, "Some enzyme", fn)
	assert.Equal(t, "", delim)
	assert.Equal(t, "", comment)

	// A '#' with no surrounding whitespace is not a comment trailer.
	fn, delim, comment = splitFuncComment("abc#def")
	assert.Equal(t, "abc#def", fn)
	assert.Equal(t, "", delim)
	assert.Equal(t, "", comment)
}

func TestIsTruncatedComment(t *testing.T) {
	assert.True(t, isTruncatedComment("frag, missing start"))
	assert.True(t, isTruncatedComment("truncated on the 3' end"))
	assert.False(t, isTruncatedComment("similar to known protein"))
}

func TestRolesOfFunction(t *testing.T) {
	roles := rolesOfFunction("Enzyme A / Enzyme B @ Enzyme C")
	assert.Equal(t, []string{"Enzyme A", "Enzyme B", "Enzyme C"}, roles)
}

func TestFunctionMapQualifyKeepsHypotheticalProteinAlways(t *testing.T) {
	fm := NewFunctionMap(nil)
	fm.Qualify(3)
	assert.True(t, fm.HasHypotheticalProtein())
}

func TestFunctionMapQualifyByGenomeCount(t *testing.T) {
	// Genome identity is derived once per fasta file (from the first
	// record's id or, failing that, the file's own name), matching the
	// one-genome-per-file convention in
	// original_source/src/function_map.h. Three separate files stand
	// in for three genomes carrying "Function A"; one file for
	// "Function B" is not enough to meet a min_reps_required of 3.
	fm := NewFunctionMap(nil)
	require.NoError(t, fm.LoadIDAssignments(writeTempFile(t,
		"p1\tFunction A\np2\tFunction A\np3\tFunction A\np4\tFunction B\n")))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "genomeA1", ">p1\nMKVL\n"), false, nil))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "genomeA2", ">p2\nMKVL\n"), false, nil))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "genomeA3", ">p3\nMKVL\n"), false, nil))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "genomeB1", ">p4\nMKVL\n"), false, nil))

	fm.Qualify(3)
	assert.NotEqual(t, Undefined, fm.LookupIndex("Function A"))
	assert.Equal(t, Undefined, fm.LookupIndex("Function B"))
}

func TestFunctionMapQualifyByGoodFunctions(t *testing.T) {
	fm := NewFunctionMap(nil)
	fm.AddGoodFunctions([]string{"Function B"})
	require.NoError(t, fm.LoadIDAssignments(writeTempFile(t, "id4\tFunction B\n")))
	require.NoError(t, fm.LoadFastaFile(writeTempFile(t, ">id4\nMKVL\n"), false, nil))

	fm.Qualify(3)
	assert.NotEqual(t, Undefined, fm.LookupIndex("Function B"))
}

func TestFunctionMapLoadFastaFileSkipsTruncatedComment(t *testing.T) {
	fm := NewFunctionMap(nil)
	path := writeTempFile(t, ">id1 Some enzyme # frag, missing start [123.4]\nMKVL\n")
	require.NoError(t, fm.LoadFastaFile(path, false, nil))
	assert.Equal(t, "", fm.LookupFunction("id1"))
}

func TestFunctionMapOriginalAssignmentRetained(t *testing.T) {
	fm := NewFunctionMap(nil)
	require.NoError(t, fm.LoadIDAssignments(writeTempFile(t, "id1\tSome enzyme # frag\n")))
	original, ok := fm.OriginalAssignment("id1")
	require.True(t, ok)
	assert.Equal(t, "Some enzyme # frag", original)
}

func TestFunctionMapWriteAndLoadFunctionIndex(t *testing.T) {
	fm := NewFunctionMap(nil)
	require.NoError(t, fm.LoadIDAssignments(writeTempFile(t, "id1\tFunction A\nid2\tFunction A\nid3\tFunction A\n")))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "g1", ">id1\nMKVL\n"), false, nil))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "g2", ">id2\nMKVL\n"), false, nil))
	require.NoError(t, fm.LoadFastaFile(writeTempFileNamed(t, "g3", ">id3\nMKVL\n"), false, nil))
	fm.Qualify(3)

	var buf strings.Builder
	require.NoError(t, fm.WriteFunctionIndex(&buf))

	path := writeTempFile(t, buf.String())
	loaded, err := LoadFunctionIndex(path)
	require.NoError(t, err)
	assert.Equal(t, fm.LookupIndex("Function A"), loaded.LookupIndex("Function A"))
	assert.Equal(t, fm.LookupIndex(HypotheticalProtein), loaded.LookupIndex(HypotheticalProtein))
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	return writeTempFileNamed(t, "input", content)
}

func writeTempFileNamed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
