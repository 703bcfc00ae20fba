package kmerindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kmersig"
)

func TestPayloadRoundTrip(t *testing.T) {
	d := kmersig.StoredKmerData{AvgFromEnd: 123, FunctionIndex: 456, Mean: 789, Median: 321, Var: 654}
	buf := make([]byte, PayloadSize)
	EncodePayload(buf, d)
	assert.Equal(t, d, DecodePayload(buf))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(kmersig.StoredKmerData{}))
	assert.False(t, IsZero(kmersig.StoredKmerData{FunctionIndex: 1}))
}

func TestKmerHash64Deterministic(t *testing.T) {
	var k kmersig.Kmer
	copy(k[:], "AAAAAAAA")
	assert.Equal(t, kmerHash64(k), kmerHash64(k))

	var k2 kmersig.Kmer
	copy(k2[:], "BBBBBBBB")
	assert.NotEqual(t, kmerHash64(k), kmerHash64(k2))
}
