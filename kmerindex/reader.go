package kmerindex

import (
	"os"

	"github.com/dgryski/go-bbhash"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"

	"kmersig"
)

// Reader opens a built ".mph"+".dat" index pair and resolves
// k-mer -> payload in O(1) with a single memory load, per spec.md
// section 4.6. The hash is loaded fully into memory; the payload
// array is memory-mapped read-only and shared lock-free by every
// reader goroutine, since the file is immutable after Build.
type Reader struct {
	hash     *bbhash.BBHash
	data     mmap.MMap
	file     *os.File
	hashSize int
}

// Open opens the index sharing basePath ("<basePath>.mph",
// "<basePath>.dat"). An unreadable hash or payload file is a fatal
// configuration error per spec.md section 4.11.
func Open(basePath string) (*Reader, error) {
	mphFile, err := os.Open(basePath + ".mph")
	if err != nil {
		return nil, kmersig.ConfigError("opening %s.mph: %s", basePath, err)
	}
	defer mphFile.Close()

	hash, err := bbhash.Load(mphFile)
	if err != nil {
		return nil, kmersig.ConfigError("loading perfect hash from %s.mph: %s", basePath, err)
	}

	datFile, err := os.Open(basePath + ".dat")
	if err != nil {
		return nil, kmersig.ConfigError("opening %s.dat: %s", basePath, err)
	}

	info, err := datFile.Stat()
	if err != nil {
		datFile.Close()
		return nil, kmersig.ConfigError("stat %s.dat: %s", basePath, err)
	}
	hashSize := int(info.Size() / PayloadSize)

	data, err := mmap.Map(datFile, mmap.RDONLY, 0)
	if err != nil {
		datFile.Close()
		return nil, kmersig.IOError("mmap %s.dat: %s", basePath, err)
	}
	// Advise the OS to prefetch the mapping, per spec.md section 4.6.
	_ = unix.Madvise(data, unix.MADV_WILLNEED)

	return &Reader{hash: hash, data: data, file: datFile, hashSize: hashSize}, nil
}

// Close releases the memory mapping and the underlying file handle.
func (r *Reader) Close() error {
	if err := r.data.Unmap(); err != nil {
		return kmersig.IOError("munmap: %s", err)
	}
	return r.file.Close()
}

// ErrNoHit is returned by Fetch when the resolved hash slot falls
// outside the payload array, which can only happen against a
// corrupted or mismatched index pair.
var ErrNoHit = kmersig.InternalError("kmer hash resolved outside payload range")

// Fetch computes i = search(kmer.bytes) and invokes cb(payload[i]).
// Because the perfect hash is defined only over the known key set, a
// lookup of an unknown kmer still yields some in-range index; the
// payload found there is either a real signature's payload (a false
// hit, absorbed statistically downstream per spec.md section 4.6) or
// the zero payload used to pad unused slots.
func (r *Reader) Fetch(k kmersig.Kmer, cb func(kmersig.StoredKmerData)) error {
	slot := r.hash.Find(kmerHash64(k))
	if slot == 0 || int(slot) > r.hashSize {
		return ErrNoHit
	}
	off := (int(slot) - 1) * PayloadSize
	cb(DecodePayload(r.data[off : off+PayloadSize]))
	return nil
}

// Size returns the number of slots in the payload array.
func (r *Reader) Size() int { return r.hashSize }
