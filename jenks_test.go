package kmersig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJenksBreaksSpansMinToMax(t *testing.T) {
	data := []float64{10, 20, 30, 40, 100, 110, 120, 200, 210, 220}
	breaks := jenksBreaks(data, 3)
	require.Len(t, breaks, 4)
	assert.Equal(t, data[0], breaks[0])
	assert.Equal(t, data[len(data)-1], breaks[len(breaks)-1])
	for i := 1; i < len(breaks); i++ {
		assert.GreaterOrEqual(t, breaks[i], breaks[i-1])
	}
}

func TestJenksBreaksSingleClassIsMinMax(t *testing.T) {
	data := []float64{5, 8, 13}
	breaks := jenksBreaks(data, 1)
	assert.Equal(t, []float64{5, 13}, breaks)
}

func TestClassifyAssignsAscendingBuckets(t *testing.T) {
	breaks := []float64{0, 100, 200, 300}
	assert.Equal(t, 0, classifyBucket(50, breaks))
	assert.Equal(t, 1, classifyBucket(150, breaks))
	assert.Equal(t, 2, classifyBucket(300, breaks))
}

func TestBucketSequencesByLengthPartitionsEverySequenceExactlyOnce(t *testing.T) {
	lengths := make([]int, 0, 1000)
	for i := 0; i < 1000; i++ {
		lengths = append(lengths, 100+(i%50)*7)
	}
	buckets := BucketSequencesByLength(lengths)

	seen := make(map[uint32]bool)
	for _, b := range buckets {
		for _, id := range b {
			require.False(t, seen[id], "sequence %d assigned to more than one bucket", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, len(lengths))
}
