package kmersig

import "sync"

// attributeShardCount controls how many independent mutex-guarded
// buckets the attribute multimap is split across, so concurrent
// extraction tasks (one per input fasta file, per spec.md section
// 4.9) rarely contend on the same lock. This is the idiomatic Go
// substitute for signature_build.h's
// tbb::concurrent_unordered_multimap<Kmer<K>, KmerAttributes>.
const attributeShardCount = 64

// AttributeCollector accumulates KmerAttribute records keyed by k-mer
// during extraction. It is insert-only until Each is called; no
// erase-during-insert is supported, matching the concurrency model in
// spec.md section 5.
type AttributeCollector struct {
	shards [attributeShardCount]attributeShard
}

type attributeShard struct {
	mu   sync.Mutex
	data map[Kmer][]KmerAttribute
}

// NewAttributeCollector returns an empty collector.
func NewAttributeCollector() *AttributeCollector {
	c := &AttributeCollector{}
	for i := range c.shards {
		c.shards[i].data = make(map[Kmer][]KmerAttribute)
	}
	return c
}

func shardFor(k Kmer) int {
	var h uint32 = 2166136261
	for _, b := range k {
		h ^= uint32(b)
		h *= 16777619
	}
	return int(h % attributeShardCount)
}

// Add records one attribute for a k-mer occurrence.
func (c *AttributeCollector) Add(k Kmer, attr KmerAttribute) {
	s := &c.shards[shardFor(k)]
	s.mu.Lock()
	s.data[k] = append(s.data[k], attr)
	s.mu.Unlock()
}

// ExtractSequence records an attribute for every valid k-mer window in
// seq, for a training sequence of the given dense id and known
// function. Grounded on signature_build.h's load_kmers_from_sequence.
func (c *AttributeCollector) ExtractSequence(seq []byte, funcIdx FunctionIndex, seqID uint32) {
	proteinLength := len(seq)
	EachKmer(seq, func(hit KmerHit) {
		c.Add(hit.Kmer, KmerAttribute{
			FunctionIndex: funcIdx,
			OTUIndex:      Undefined,
			OffsetFromEnd: OffsetFromEnd(proteinLength, hit.Offset),
			SeqID:         seqID,
			ProteinLength: uint32(proteinLength),
		})
	})
}

// Each calls fn once per distinct k-mer with its full attribute slice.
// Each shard is visited in isolation and its map is nilled out before
// visiting so callers can drain a collector exactly once and reclaim
// memory incrementally, matching spec.md's "consumed and dropped by
// the selector" attribute-record lifecycle.
func (c *AttributeCollector) Each(fn func(k Kmer, attrs []KmerAttribute)) {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		data := s.data
		s.data = nil
		s.mu.Unlock()
		for k, attrs := range data {
			fn(k, attrs)
		}
	}
}
