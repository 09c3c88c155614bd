// Package encoding provides the little-endian byte-packing helpers shared by
// every wire format in this module: event records, protocol packets, and
// state-hash folding all read and write through these functions so the byte
// order is defined in exactly one place.
package encoding

import (
	"encoding/binary"
)

// Read16 reads a little-endian uint16 from bytes at the given offset
func Read16(bytes []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(bytes[offset:])
}

// Read32 reads a little-endian uint32 from bytes at the given offset
func Read32(bytes []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(bytes[offset:])
}

// Write16 writes v as a little-endian uint16 into bytes at the given offset.
func Write16(bytes []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(bytes[offset:], v)
}

// Write32 writes v as a little-endian uint32 into bytes at the given offset.
func Write32(bytes []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(bytes[offset:], v)
}
