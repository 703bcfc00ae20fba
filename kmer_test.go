package kmersig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEachKmerBasic(t *testing.T) {
	seq := []byte("AAAAAAAABB") // len 10, K=8 -> offsets 0,1,2
	var offsets []int
	EachKmer(seq, func(hit KmerHit) {
		offsets = append(offsets, hit.Offset)
	})
	assert.Equal(t, []int{0, 1, 2}, offsets)
}

func TestEachKmerTooShort(t *testing.T) {
	seq := []byte("AAA")
	called := false
	EachKmer(seq, func(hit KmerHit) { called = true })
	assert.False(t, called)
}

func TestEachKmerSkipsAmbiguousWindows(t *testing.T) {
	// "AAAAAAAAXAAAAAAAA": an X at index 8 lies inside every window
	// starting at offsets 1..8. The window at offset 0 covers indices
	// 0..7, stops just short of the X and is kept; the scan then
	// resumes at offset 9, one past the X.
	seq := []byte("AAAAAAAAXAAAAAAAA")
	var offsets []int
	EachKmer(seq, func(hit KmerHit) { offsets = append(offsets, hit.Offset) })

	for _, o := range offsets {
		assert.False(t, o >= 1 && o <= 8, "offset %d should have been skipped", o)
	}
	assert.Contains(t, offsets, 0)
	assert.Contains(t, offsets, 9)
}

func TestOffsetFromEndCorrectness(t *testing.T) {
	// spec.md testable property: for a protein of length L, offset_from_end = L - p.
	L := 300
	for _, p := range []int{0, 100, 292} {
		assert.Equal(t, uint16(L-p), OffsetFromEnd(L, p))
	}
}
