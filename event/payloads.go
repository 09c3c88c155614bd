package event

import "github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"

// Payload is implemented by every kind-specific payload type. It exists
// only to let Event carry one of the ~20 payload shapes behind a single
// field; the actual marshalling is centralized in codec.go as a single
// exhaustive switch over Kind, per the "compile-time exhaustive dispatch"
// design note rather than one encode method per type.
type Payload interface {
	Kind() Kind
}

type EmptyPayload struct{}

func (EmptyPayload) Kind() Kind { return KindEmpty }

type DestructPayload struct{}

func (DestructPayload) Kind() Kind { return KindDestruct }

type ExitPayload struct{}

func (ExitPayload) Kind() Kind { return KindExit }

// AllyPayload declares or revokes an alliance with another house.
type AllyPayload struct {
	HouseID uint8
}

func (AllyPayload) Kind() Kind { return KindAlly }

// MegamissionPayload issues a compound mission order: move Target to
// Destination, attacking AttackTarget along the way.
type MegamissionPayload struct {
	Target       handle.Handle
	Mission      uint8
	AttackTarget handle.Handle
	Destination  uint32 // cell coordinate, not a handle
}

func (MegamissionPayload) Kind() Kind { return KindMegamission }

// IdlePayload, ScatterPayload, DeployPayload, RepairPayload, SellPayload,
// and PrimaryPayload all share the same shape: a single target handle.

type IdlePayload struct{ Target handle.Handle }

func (IdlePayload) Kind() Kind { return KindIdle }

type ScatterPayload struct{ Target handle.Handle }

func (ScatterPayload) Kind() Kind { return KindScatter }

type DeployPayload struct{ Target handle.Handle }

func (DeployPayload) Kind() Kind { return KindDeploy }

type RepairPayload struct{ Target handle.Handle }

func (RepairPayload) Kind() Kind { return KindRepair }

type SellPayload struct{ Target handle.Handle }

func (SellPayload) Kind() Kind { return KindSell }

type PrimaryPayload struct{ Target handle.Handle }

func (PrimaryPayload) Kind() Kind { return KindPrimary }

// PlacePayload places a building/object type at a cell.
type PlacePayload struct {
	KindTag uint8
	TypeID  uint8
	Cell    uint32
}

func (PlacePayload) Kind() Kind { return KindPlace }

type OptionsPayload struct{ Flags uint32 }

func (OptionsPayload) Kind() Kind { return KindOptions }

type GamespeedPayload struct{ Speed uint8 }

func (GamespeedPayload) Kind() Kind { return KindGamespeed }

// ProducePayload, SuspendPayload, and AbandonPayload all name a type
// within a production category.

type ProducePayload struct {
	KindTag uint8
	TypeID  uint8
}

func (ProducePayload) Kind() Kind { return KindProduce }

type SuspendPayload struct {
	KindTag uint8
	TypeID  uint8
}

func (SuspendPayload) Kind() Kind { return KindSuspend }

type AbandonPayload struct {
	KindTag uint8
	TypeID  uint8
}

func (AbandonPayload) Kind() Kind { return KindAbandon }

type SpecialPlacePayload struct {
	SpecialID uint16
	Cell      uint32
}

func (SpecialPlacePayload) Kind() Kind { return KindSpecialPlace }

// AnimationPayload spawns a purely cosmetic animation — not folded into
// the state hash (§4.D), but still a deterministic, replayed event so
// every peer's UI stays in step.
type AnimationPayload struct {
	AnimType       uint8
	Owner          uint8
	Coord          uint32
	VisibilityMask uint32
}

func (AnimationPayload) Kind() Kind { return KindAnimation }

type SpecialPayload struct{ Value uint32 }

func (SpecialPayload) Kind() Kind { return KindSpecial }

// FramesyncPayload and FrameinfoPayload both carry the same CRC/command
// count/delay triple exchanged for frame-rate diagnostics, distinct from
// the scheduler's own SYNC_CHECK packet (§4.H).
type FramesyncPayload struct {
	CRC          uint32
	CommandCount uint16
	Delay        uint8
}

func (FramesyncPayload) Kind() Kind { return KindFramesync }

type FrameinfoPayload struct {
	CRC          uint32
	CommandCount uint16
	Delay        uint8
}

func (FrameinfoPayload) Kind() Kind { return KindFrameinfo }

// MessagePayload is a fixed 40-byte null-padded chat string.
type MessagePayload struct {
	Text [40]byte
}

// NewMessagePayload truncates s to 39 bytes (leaving room for at least
// one trailing NUL) and null-pads the rest.
func NewMessagePayload(s string) MessagePayload {
	var p MessagePayload
	if len(s) > 39 {
		s = s[:39]
	}
	copy(p.Text[:], s)
	return p
}

// String returns the text up to the first NUL byte.
func (p MessagePayload) String() string {
	for i, b := range p.Text {
		if b == 0 {
			return string(p.Text[:i])
		}
	}
	return string(p.Text[:])
}

func (MessagePayload) Kind() Kind { return KindMessage }

type ResponseTimePayload struct{ Delay uint8 }

func (ResponseTimePayload) Kind() Kind { return KindResponseTime }

// ArchivePayload links two handles together (e.g. a fleet and its
// archived waypoint queue).
type ArchivePayload struct {
	A handle.Handle
	B handle.Handle
}

func (ArchivePayload) Kind() Kind { return KindArchive }

type TimingPayload struct {
	DesiredFrameRate uint16
	MaxAhead         uint16
}

func (TimingPayload) Kind() Kind { return KindTiming }

type ProcessTimePayload struct{ AvgTicks uint16 }

func (ProcessTimePayload) Kind() Kind { return KindProcessTime }
