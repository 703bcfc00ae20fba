package kmerindex

import (
	"os"

	"github.com/dgryski/go-bbhash"

	"kmersig"
)

// Build takes the kept k-mer set and writes a ".mph" minimal perfect
// hash file plus a parallel ".dat" payload file sharing basePath,
// grounded on build_perfect_hash in
// original_source/src/perfect_hash.h: hash the key set, then for each
// key look up its assigned slot and write that key's payload there.
//
// Hash slot assignment is not guaranteed stable across builds (bbhash
// is seeded), matching spec.md section 5; determinism tests must
// compare by key, never by slot.
func Build(basePath string, kept []kmersig.KeptKmer) error {
	keys := make([]uint64, len(kept))
	for i, kk := range kept {
		keys[i] = kmerHash64(kk.Kmer)
	}

	hash, err := bbhash.New(2.0, keys)
	if err != nil {
		return kmersig.IOError("building perfect hash: %s", err)
	}

	hashSize := len(kept)
	data := make([]byte, hashSize*PayloadSize)
	for _, kk := range kept {
		slot := hash.Find(kmerHash64(kk.Kmer))
		if slot == 0 || int(slot) > hashSize {
			return kmersig.InternalError("perfect hash slot %d out of range for hash size %d", slot, hashSize)
		}
		// bbhash.Find returns a 1-based index.
		off := (int(slot) - 1) * PayloadSize
		EncodePayload(data[off:off+PayloadSize], kk.Payload)
	}

	mphFile, err := os.Create(basePath + ".mph")
	if err != nil {
		return kmersig.IOError("creating %s.mph: %s", basePath, err)
	}
	defer mphFile.Close()
	if err := hash.Save(mphFile); err != nil {
		return kmersig.IOError("writing %s.mph: %s", basePath, err)
	}

	datFile, err := os.Create(basePath + ".dat")
	if err != nil {
		return kmersig.IOError("creating %s.dat: %s", basePath, err)
	}
	defer datFile.Close()
	if _, err := datFile.Write(data); err != nil {
		return kmersig.IOError("writing %s.dat: %s", basePath, err)
	}

	return nil
}
