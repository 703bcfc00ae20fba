package kmersig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kmerOf(s string) Kmer {
	var k Kmer
	copy(k[:], s)
	return k
}

func hitAt(pos int, fn FunctionIndex, mean uint16) Hit {
	return Hit{Pos: pos, Payload: StoredKmerData{FunctionIndex: fn, Mean: mean, Median: mean}}
}

// TestChainerIdempotenceOnIsolatedRegion is spec.md section 8's
// "chainer idempotence" property: a single isolated run of n >=
// min_hits hits of one function, tightly spaced, yields exactly one
// KmerCall of that function with count n.
func TestChainerIdempotenceOnIsolatedRegion(t *testing.T) {
	var hits []Hit
	for i := 0; i < 5; i++ {
		hits = append(hits, hitAt(i*10, 7, 300))
	}
	calls := Chain(hits, 300, DefaultChainerConfig())
	require.Len(t, calls, 1)
	assert.Equal(t, FunctionIndex(7), calls[0].FunctionIndex)
	assert.Equal(t, int32(5), calls[0].Count)
}

// TestChainerGapBreak is spec.md section 8 concrete scenario 3.
func TestChainerGapBreak(t *testing.T) {
	var hits []Hit
	for _, p := range []int{10, 20, 30} {
		hits = append(hits, hitAt(p, 1, 300))
	}
	for i := 0; i < 5; i++ {
		hits = append(hits, hitAt(300+i*5, 1, 300))
	}
	calls := Chain(hits, 300, DefaultChainerConfig())
	require.Len(t, calls, 1)
	assert.Equal(t, int32(5), calls[0].Count)
}

func TestChainerBelowMinHitsEmitsNothing(t *testing.T) {
	var hits []Hit
	for i := 0; i < 3; i++ {
		hits = append(hits, hitAt(i*10, 1, 300))
	}
	calls := Chain(hits, 300, DefaultChainerConfig())
	assert.Empty(t, calls)
}

func TestChainerRejectsLengthOutsideInterval(t *testing.T) {
	var hits []Hit
	for i := 0; i < 5; i++ {
		hits = append(hits, hitAt(i*10, 1, 300))
	}
	// Query length of 1000 is far outside [mean-2*MAD, mean+2*MAD]
	// when MAD is floored at 30 (mean=300 -> [240, 360]).
	calls := Chain(hits, 1000, DefaultChainerConfig())
	assert.Empty(t, calls)
}

func TestChainerIgnoreHypothetical(t *testing.T) {
	cfg := DefaultChainerConfig()
	cfg.IgnoreHypothetical = true
	cfg.HypotheticalIndex = 99

	var hits []Hit
	for i := 0; i < 5; i++ {
		hits = append(hits, hitAt(i*10, 99, 300))
	}
	calls := Chain(hits, 300, cfg)
	assert.Empty(t, calls)
}
