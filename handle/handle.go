// Package handle implements the 32-bit tagged target handle used to refer
// to game entities inside events and across the network without pointer
// aliasing (see §4.A of the core design). A handle packs an entity-kind
// tag, a generation counter, and a dense heap index into one value that is
// safe to serialize and safe to compare across peers.
package handle

// Kind identifies which object heap a handle's index refers to. Kind is
// part of the wire contract: its numeric value, not just its name, is
// serialized inside every target handle.
type Kind uint8

const (
	// KindNone is the reserved tag for "no target". A zero-value Handle
	// always decodes to KindNone, so the Go zero value doubles as the
	// wire-level "no target" sentinel.
	KindNone Kind = iota
	KindInfantry
	KindVehicle
	KindAircraft
	KindBullet
	KindAnimation
	KindBuilding

	kindCount
)

// String returns a human-readable kind name, for logging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInfantry:
		return "Infantry"
	case KindVehicle:
		return "Vehicle"
	case KindAircraft:
		return "Aircraft"
	case KindBullet:
		return "Bullet"
	case KindAnimation:
		return "Animation"
	case KindBuilding:
		return "Building"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the known entity kinds (excluding
// KindNone, which is a valid decode result but never a valid heap).
func (k Kind) Valid() bool {
	return k > KindNone && k < kindCount
}

const (
	kindBits  = 4
	genBits   = 8
	indexBits = 20

	kindShift = genBits + indexBits
	genShift  = indexBits

	kindMask  = uint32(1)<<kindBits - 1
	genMask   = uint32(1)<<genBits - 1
	indexMask = uint32(1)<<indexBits - 1

	// MaxIndex is the largest dense index a handle can address.
	MaxIndex = int(indexMask)
	// MaxGeneration is the largest generation counter value before wraparound.
	MaxGeneration = int(genMask)
)

// Handle is the 32-bit wire-format target handle: kind (4 bits) << 28 |
// generation (8 bits) << 20 | index (20 bits).
type Handle uint32

// None is the reserved "no target" handle.
const None Handle = 0

// Encode packs a kind, generation, and dense index into a Handle. The
// caller is responsible for keeping index and generation within their bit
// widths; Encode masks rather than rejects out-of-range input so that a
// generation counter that wraps past MaxGeneration degrades gracefully
// instead of corrupting the kind field.
func Encode(kind Kind, generation, index int) Handle {
	return Handle(uint32(kind)<<kindShift | (uint32(generation)&genMask)<<genShift | (uint32(index) & indexMask))
}

// Kind returns the entity-kind tag carried by h.
func (h Handle) Kind() Kind {
	return Kind(uint32(h) >> kindShift & kindMask)
}

// Generation returns the generation counter carried by h.
func (h Handle) Generation() int {
	return int(uint32(h) >> genShift & genMask)
}

// Index returns the dense heap index carried by h.
func (h Handle) Index() int {
	return int(uint32(h) & indexMask)
}

// Decode splits h into its kind, generation, and index fields. ok is false
// when h is None or carries a kind tag outside the known range — decode
// never fails on an out-of-bounds index, since a decoder must tolerate
// handles whose index no longer refers to a live slot (§4.A); that check
// belongs to the heap that owns the index.
func Decode(h Handle) (kind Kind, generation, index int, ok bool) {
	kind = h.Kind()
	generation = h.Generation()
	index = h.Index()
	ok = kind.Valid()
	return
}

// IsNone reports whether h is the reserved "no target" handle.
func (h Handle) IsNone() bool {
	return h == None
}
