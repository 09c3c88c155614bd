// Package statehash computes the CRC-32 projection of simulation state
// used to detect desyncs between peers (§4.D). The hash is folded over a
// fixed, deterministic traversal — ascending index order within each
// entity kind's heap — so any two peers with identical simulation state
// compute an identical hash. It MUST NOT observe wall-clock time,
// floating point values, or unordered-map iteration order.
package statehash

import (
	"hash/crc32"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/encoding"
)

// Folder accumulates integer state into a running CRC-32 (IEEE
// polynomial, matching the FRAMESYNC/FRAMEINFO/SYNC_CHECK wire CRCs).
// Call FoldEntity once per live entity in ascending index order, then
// Sum after folding the master random seed.
type Folder struct {
	table *crc32.Table
	crc   uint32
}

// NewFolder starts a fresh fold.
func NewFolder() *Folder {
	return &Folder{table: crc32.IEEETable, crc: 0}
}

// FoldUint8 folds a single byte of state.
func (f *Folder) FoldUint8(v uint8) {
	f.crc = crc32.Update(f.crc, f.table, []byte{v})
}

// FoldUint16 folds a little-endian uint16.
func (f *Folder) FoldUint16(v uint16) {
	var b [2]byte
	encoding.Write16(b[:], 0, v)
	f.crc = crc32.Update(f.crc, f.table, b[:])
}

// FoldUint32 folds a little-endian uint32.
func (f *Folder) FoldUint32(v uint32) {
	var b [4]byte
	encoding.Write32(b[:], 0, v)
	f.crc = crc32.Update(f.crc, f.table, b[:])
}

// FoldInt32 folds a signed 32-bit value (e.g. a cell coordinate) via its
// bit pattern.
func (f *Folder) FoldInt32(v int32) {
	f.FoldUint32(uint32(v))
}

// FoldEntity folds one entity's position, health, and faction — the
// canonical per-entity projection named in §4.D. index is folded first
// so two entities with identical component values at different indices
// still produce different hashes.
func (f *Folder) FoldEntity(index int, x, y int32, health uint16, faction uint8) {
	f.FoldUint32(uint32(index))
	f.FoldInt32(x)
	f.FoldInt32(y)
	f.FoldUint16(health)
	f.FoldUint8(faction)
}

// FoldSeed folds the master random seed, as required so two peers whose
// entity state happens to coincide but whose RNG streams have diverged
// still disagree.
func (f *Folder) FoldSeed(seed uint32) {
	f.FoldUint32(seed)
}

// Sum returns the accumulated CRC-32.
func (f *Folder) Sum() uint32 {
	return f.crc
}
