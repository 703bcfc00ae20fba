package kmersig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func region(fn FunctionIndex, start, end uint32, count int32, medLen uint32) Region {
	return Region{FunctionIndex: fn, Start: start, End: end, Count: count, ProteinLengthMedian: medLen}
}

// TestSandwichMergeProperty is spec.md section 8's "sandwich merge
// property" and concrete scenario 4.
func TestSandwichMergeProperty(t *testing.T) {
	in := []Region{region(1, 0, 50, 7, 200), region(2, 60, 80, 3, 100), region(1, 90, 140, 4, 200)}
	out := SandwichMerge(in)
	require.Len(t, out, 1)
	assert.Equal(t, FunctionIndex(1), out[0].FunctionIndex)
	assert.Equal(t, int32(11), out[0].Count)
	assert.EqualValues(t, 140, out[0].End)
}

func TestSandwichMergeLeavesLargeMiddleUnchanged(t *testing.T) {
	in := []Region{region(1, 0, 10, 7, 200), region(2, 20, 30, 6, 200), region(1, 40, 50, 4, 200)}
	out := SandwichMerge(in)
	assert.Equal(t, in, out)
}

func TestCollapseMergesAdjacentSameFunction(t *testing.T) {
	calls := []KmerCall{
		{FunctionIndex: 1, Start: 0, End: 20, Count: 3},
		{FunctionIndex: 1, Start: 30, End: 50, Count: 4},
		{FunctionIndex: 2, Start: 60, End: 70, Count: 2},
	}
	out := Collapse(calls)
	require.Len(t, out, 2)
	assert.Equal(t, int32(7), out[0].Count)
	assert.EqualValues(t, 50, out[0].End)
}

func newFunctionMapWithFunctions(functions ...string) *FunctionMap {
	fm := NewFunctionMap(nil)
	fm.functionIndex = make(map[string]FunctionIndex, len(functions))
	fm.indexFunction = make(map[FunctionIndex]string, len(functions))
	for i, f := range functions {
		fi := FunctionIndex(i)
		fm.functionIndex[f] = fi
		fm.indexFunction[fi] = f
	}
	return fm
}

// TestFusionCall is spec.md section 8's fusion property and concrete
// scenario 5.
func TestFusionCall(t *testing.T) {
	fm := newFunctionMapWithFunctions("Function A", "Function B", "Function A / Function B")
	a := fm.LookupIndex("Function A")
	b := fm.LookupIndex("Function B")
	w := fm.LookupIndex("Function A / Function B")

	calls := []KmerCall{
		{FunctionIndex: a, Start: 0, End: 50, Count: 6, ProteinLengthMedian: 200},
		{FunctionIndex: w, Start: 51, End: 150, Count: 7, ProteinLengthMedian: 400},
		{FunctionIndex: b, Start: 151, End: 200, Count: 5, ProteinLengthMedian: 210},
	}
	r := NewResolver(fm)
	call := r.Resolve(calls)
	assert.Equal(t, w, call.FunctionIndex)
	assert.Equal(t, float32(18), call.Score)
}

func TestFusionCallRejectedWhenLengthsDeviateTooMuch(t *testing.T) {
	fm := newFunctionMapWithFunctions("Function A", "Function B", "Function A / Function B")
	a := fm.LookupIndex("Function A")
	b := fm.LookupIndex("Function B")
	w := fm.LookupIndex("Function A / Function B")

	calls := []KmerCall{
		{FunctionIndex: a, Start: 0, End: 50, Count: 6, ProteinLengthMedian: 100},
		{FunctionIndex: w, Start: 51, End: 150, Count: 7, ProteinLengthMedian: 400},
		{FunctionIndex: b, Start: 151, End: 200, Count: 5, ProteinLengthMedian: 100},
	}
	r := NewResolver(fm)
	call := r.Resolve(calls)
	assert.NotEqual(t, w, call.FunctionIndex)
}

// TestThresholdProperty is spec.md section 8's "threshold property":
// with no fusion match and no fallback trigger, a top-second gap below
// 5 returns Undefined.
func TestThresholdProperty(t *testing.T) {
	fm := newFunctionMapWithFunctions("Function A", "Function B", "Function C")
	a := fm.LookupIndex("Function A")
	b := fm.LookupIndex("Function B")
	c := fm.LookupIndex("Function C")

	calls := []KmerCall{
		{FunctionIndex: a, Start: 0, End: 10, Count: 10},
		{FunctionIndex: b, Start: 100, End: 110, Count: 8},
		{FunctionIndex: c, Start: 200, End: 210, Count: 7},
	}
	r := NewResolver(fm)
	call := r.Resolve(calls)
	assert.Equal(t, Undefined, call.FunctionIndex)
}

func TestAggregateReturnsTopWhenOffsetAtLeastFive(t *testing.T) {
	fm := newFunctionMapWithFunctions("Function A", "Function B")
	a := fm.LookupIndex("Function A")
	b := fm.LookupIndex("Function B")

	calls := []KmerCall{
		{FunctionIndex: a, Start: 0, End: 10, Count: 10},
		{FunctionIndex: b, Start: 100, End: 110, Count: 4},
	}
	r := NewResolver(fm)
	call := r.Resolve(calls)
	assert.Equal(t, a, call.FunctionIndex)
	assert.Equal(t, float32(10), call.Score)
	assert.Equal(t, float32(6), call.ScoreOffset)
}

func TestAggregateFallbackWithExactlyTwoCandidates(t *testing.T) {
	fm := newFunctionMapWithFunctions("Function A", "Function B")
	a := fm.LookupIndex("Function A")
	b := fm.LookupIndex("Function B")

	calls := []KmerCall{
		{FunctionIndex: a, Start: 0, End: 10, Count: 8},
		{FunctionIndex: b, Start: 100, End: 110, Count: 6},
	}
	r := NewResolver(fm)
	call := r.Resolve(calls)
	assert.Equal(t, Undefined, call.FunctionIndex)
	assert.Contains(t, call.Function, "??")
	assert.Equal(t, float32(8), call.Score)
}
