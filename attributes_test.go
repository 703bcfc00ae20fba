package kmersig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeCollectorExtractSequenceRecordsEveryValidKmer(t *testing.T) {
	c := NewAttributeCollector()
	seq := []byte("AAAAAAAABB") // K=8, offsets 0,1,2 valid
	c.ExtractSequence(seq, 3, 42)

	total := 0
	c.Each(func(k Kmer, attrs []KmerAttribute) {
		total += len(attrs)
		for _, a := range attrs {
			assert.Equal(t, FunctionIndex(3), a.FunctionIndex)
			assert.Equal(t, uint32(42), a.SeqID)
			assert.Equal(t, uint32(len(seq)), a.ProteinLength)
		}
	})
	assert.Equal(t, 3, total)
}

func TestAttributeCollectorEachDrainsOnce(t *testing.T) {
	c := NewAttributeCollector()
	var k Kmer
	copy(k[:], "AAAAAAAA")
	c.Add(k, KmerAttribute{FunctionIndex: 1})

	var firstPass, secondPass int
	c.Each(func(k Kmer, attrs []KmerAttribute) { firstPass += len(attrs) })
	c.Each(func(k Kmer, attrs []KmerAttribute) { secondPass += len(attrs) })

	require.Equal(t, 1, firstPass)
	assert.Equal(t, 0, secondPass)
}

func TestShardForIsDeterministic(t *testing.T) {
	var k Kmer
	copy(k[:], "AAAAAAAA")
	assert.Equal(t, shardFor(k), shardFor(k))
}
