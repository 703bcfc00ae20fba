// Package kmerindex implements the on-disk signature index: a minimal
// perfect hash over the kept k-mer set (the ".mph" file) plus a
// parallel fixed-size payload array (the ".dat" file), memory-mapped
// for lock-free concurrent reads. Grounded on
// original_source/src/perfect_hash.h and spec.md sections 4.5-4.6.
//
// This is kept as a separate package from the root kmersig package
// the same way the teacher (ndaniels/mica) separates its low-level
// on-disk concern (sequence/seed compression, in compress/) from the
// rest of its domain logic.
package kmerindex

import (
	"encoding/binary"

	"kmersig"
)

// PayloadSize is the encoded size in bytes of one StoredKmerData
// record: five little-endian uint16 fields.
const PayloadSize = kmersig.StoredKmerSize

// EncodePayload writes d into buf (which must be at least PayloadSize
// bytes) in the field order fixed by spec.md section 6: avg_from_end,
// function_index, mean, median, var.
func EncodePayload(buf []byte, d kmersig.StoredKmerData) {
	binary.LittleEndian.PutUint16(buf[0:2], d.AvgFromEnd)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(d.FunctionIndex))
	binary.LittleEndian.PutUint16(buf[4:6], d.Mean)
	binary.LittleEndian.PutUint16(buf[6:8], d.Median)
	binary.LittleEndian.PutUint16(buf[8:10], d.Var)
}

// DecodePayload reads a StoredKmerData out of buf, the inverse of
// EncodePayload.
func DecodePayload(buf []byte) kmersig.StoredKmerData {
	return kmersig.StoredKmerData{
		AvgFromEnd:    binary.LittleEndian.Uint16(buf[0:2]),
		FunctionIndex: kmersig.FunctionIndex(binary.LittleEndian.Uint16(buf[2:4])),
		Mean:          binary.LittleEndian.Uint16(buf[4:6]),
		Median:        binary.LittleEndian.Uint16(buf[6:8]),
		Var:           binary.LittleEndian.Uint16(buf[8:10]),
	}
}

// IsZero reports whether a payload is the all-zero sentinel written
// into unused hash slots (spec.md section 4.5: "Any unused slots ...
// are zero-filled"). A zero payload has FunctionIndex == 0, which is
// a real, assignable function index, not Undefined -- so a zero
// payload is only meaningful as "unused slot" in combination with a
// key mismatch, per spec.md section 4.6.
func IsZero(d kmersig.StoredKmerData) bool {
	return d == kmersig.StoredKmerData{}
}
