// Package kmersig annotates protein sequences by matching fixed-length
// amino-acid k-mers against a precomputed signature index, builds that
// index from labeled training data, and computes all-pairs sequence
// similarity via shared-signature intersection.
package kmersig

import "math"

// K is the fixed k-mer length used throughout the signature index.
const K = 8

// FunctionIndex is the compact identifier for a kept function.
type FunctionIndex uint16

// Undefined marks the absence of a function assignment.
const Undefined FunctionIndex = math.MaxUint16

// HypotheticalProtein is the function string that is always kept,
// regardless of qualification rules.
const HypotheticalProtein = "hypothetical protein"

// Kmer is a fixed K-byte amino-acid window. Equality is byte-wise.
type Kmer [K]byte

func (k Kmer) String() string { return string(k[:]) }

// StoredKmerData is the 10-byte on-disk payload for one signature k-mer.
// Field order and width are load-bearing: the layout is memory-mapped
// from disk and must match byte-for-byte across builder and reader.
type StoredKmerData struct {
	AvgFromEnd    uint16
	FunctionIndex FunctionIndex
	Mean          uint16
	Median        uint16
	Var           uint16
}

// StoredKmerSize is the encoded size of StoredKmerData in bytes.
const StoredKmerSize = 10

// KmerAttribute is an in-memory-only attribute record produced by the
// attribute collector for one occurrence of a k-mer in one training
// sequence.
type KmerAttribute struct {
	FunctionIndex FunctionIndex
	OTUIndex      FunctionIndex // reserved, always Undefined
	OffsetFromEnd uint16
	SeqID         uint32
	ProteinLength uint32
}

// KeptKmer pairs a signature k-mer with its stored payload, the sole
// input to the perfect-hash builder.
type KeptKmer struct {
	Kmer    Kmer
	Payload StoredKmerData
}

// KmerCall is a candidate call region produced by the hit chainer and
// consumed by the best-call resolver.
type KmerCall struct {
	Start                  uint32
	End                    uint32
	Count                  int32
	FunctionIndex          FunctionIndex
	ProteinLengthMedian    uint32
	ProteinLengthMedAvgDev float32
}

// FunctionCall is the final, single output of the best-call resolver
// for one query protein.
type FunctionCall struct {
	FunctionIndex FunctionIndex
	Function      string
	Score         float32
	ScoreOffset   float32
}
