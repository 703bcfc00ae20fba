package kmersig

import "sync"

// SeqIDMap is a process-wide bijection between a sequence id string
// and a dense integer, grounded on SeqIdMap in
// original_source/src/seq_id_map.h. That implementation pairs a
// tbb::concurrent_vector with a tbb::concurrent_map; the idiomatic Go
// substitute for a bijection this rarely mutated (write-once per new
// id, read-heavy thereafter) is a single RWMutex guarding both sides.
type SeqIDMap struct {
	mu       sync.RWMutex
	toIndex  map[string]uint32
	toString []string
}

// NewSeqIDMap returns an empty, ready-to-use map.
func NewSeqIDMap() *SeqIDMap {
	return &SeqIDMap{toIndex: make(map[string]uint32)}
}

// Lookup returns the dense id for s, allocating a new one atomically
// if s has not been seen before.
func (m *SeqIDMap) Lookup(s string) uint32 {
	m.mu.RLock()
	if idx, ok := m.toIndex[s]; ok {
		m.mu.RUnlock()
		return idx
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.toIndex[s]; ok {
		return idx
	}
	idx := uint32(len(m.toString))
	m.toString = append(m.toString, s)
	m.toIndex[s] = idx
	return idx
}

// String returns the id string for a dense index previously returned
// by Lookup.
func (m *SeqIDMap) String(idx uint32) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.toString[idx]
}

// Len returns the number of distinct ids allocated so far.
func (m *SeqIDMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.toString)
}
