// Package event implements the tagged player/sync action record (§4.C):
// a closed set of ~20 event kinds, each with a bit-exact little-endian
// wire encoding, sharing one 7-byte header.
package event

// Kind enumerates every event kind this module understands. The numeric
// value of each constant is part of the wire contract — it is the first
// byte of every encoded event — so this block must never be reordered or
// have values inserted ahead of existing ones.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindDestruct
	KindMegamission
	KindExit
	KindAlly
	KindIdle
	KindScatter
	KindDeploy
	KindRepair
	KindSell
	KindPrimary
	KindPlace
	KindOptions
	KindGamespeed
	KindProduce
	KindSuspend
	KindAbandon
	KindSpecialPlace
	KindAnimation
	KindSpecial
	KindFramesync
	KindFrameinfo
	KindMessage
	KindResponseTime
	KindArchive
	KindTiming
	KindProcessTime

	kindCount
)

// String returns a human-readable kind name, for logging and CLI dumps.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindDestruct:
		return "DESTRUCT"
	case KindMegamission:
		return "MEGAMISSION"
	case KindExit:
		return "EXIT"
	case KindAlly:
		return "ALLY"
	case KindIdle:
		return "IDLE"
	case KindScatter:
		return "SCATTER"
	case KindDeploy:
		return "DEPLOY"
	case KindRepair:
		return "REPAIR"
	case KindSell:
		return "SELL"
	case KindPrimary:
		return "PRIMARY"
	case KindPlace:
		return "PLACE"
	case KindOptions:
		return "OPTIONS"
	case KindGamespeed:
		return "GAMESPEED"
	case KindProduce:
		return "PRODUCE"
	case KindSuspend:
		return "SUSPEND"
	case KindAbandon:
		return "ABANDON"
	case KindSpecialPlace:
		return "SPECIAL_PLACE"
	case KindAnimation:
		return "ANIMATION"
	case KindSpecial:
		return "SPECIAL"
	case KindFramesync:
		return "FRAMESYNC"
	case KindFrameinfo:
		return "FRAMEINFO"
	case KindMessage:
		return "MESSAGE"
	case KindResponseTime:
		return "RESPONSE_TIME"
	case KindArchive:
		return "ARCHIVE"
	case KindTiming:
		return "TIMING"
	case KindProcessTime:
		return "PROCESS_TIME"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// headerSize is the size in bytes of the common header shared by every
// event: kind (1) + frame (4) + origin peer (1) + peer metadata (1).
const headerSize = 7

// frameMask keeps only the 27 significant low bits of a frame number
// (§3: "only the low 27 bits are significant; wraps at ~25 days of 30Hz
// play").
const frameMask = 1<<27 - 1

// payloadLen returns the contractual payload byte count for k, or -1 if
// k is not a known kind. This table is the single source of truth for
// "len(encode(e)) == 7 + kind_payload_len(e.kind)" (§4.C).
func payloadLen(k Kind) int {
	switch k {
	case KindEmpty, KindDestruct, KindExit:
		return 0
	case KindAlly:
		return 1
	case KindMegamission:
		return 13
	case KindIdle, KindScatter, KindDeploy, KindRepair, KindSell, KindPrimary:
		return 4
	case KindPlace:
		return 6
	case KindOptions:
		return 4
	case KindGamespeed:
		return 1
	case KindProduce, KindSuspend, KindAbandon:
		return 2
	case KindSpecialPlace:
		return 6
	case KindAnimation:
		return 10
	case KindSpecial:
		return 4
	case KindFramesync, KindFrameinfo:
		return 7
	case KindMessage:
		return 40
	case KindResponseTime:
		return 1
	case KindArchive:
		return 8
	case KindTiming:
		return 4
	case KindProcessTime:
		return 2
	default:
		return -1
	}
}
