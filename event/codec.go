package event

import (
	"errors"
	"fmt"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/encoding"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"
)

// ErrTruncated is returned by Decode when fewer bytes remain than the
// kind's contractual payload length demands.
var ErrTruncated = errors.New("event: truncated")

// ErrUnknownKind is returned by Decode when the kind byte does not name a
// known event kind.
var ErrUnknownKind = errors.New("event: unknown kind")

// Event pairs the common header with its kind-specific payload.
type Event struct {
	Header
	Payload Payload
}

// New builds an Event from a header and payload, setting Header.Kind from
// the payload so callers cannot construct a header/payload mismatch.
func New(frame uint32, originPeer uint8, meta Meta, payload Payload) Event {
	return Event{
		Header: Header{
			Kind:       payload.Kind(),
			Frame:      frame & frameMask,
			OriginPeer: originPeer,
			Meta:       meta,
		},
		Payload: payload,
	}
}

// Encode serializes e as a 7-byte header followed by its kind-specific
// payload. len(Encode(e)) == 7 + kind_payload_len(e.Kind) always holds.
func Encode(e Event) []byte {
	body := encodeBody(e.Payload)
	out := make([]byte, headerSize+len(body))
	out[0] = byte(e.Header.Kind)
	encoding.Write32(out, 1, e.Header.Frame&frameMask)
	out[5] = e.Header.OriginPeer
	out[6] = byte(e.Header.Meta)
	copy(out[headerSize:], body)
	return out
}

// Decode reads one event starting at offset and returns it along with the
// offset of the byte immediately following it, for back-to-back decoding
// of a packed event stream.
func Decode(data []byte, offset int) (Event, int, error) {
	if offset < 0 || len(data)-offset < headerSize {
		return Event{}, offset, ErrTruncated
	}
	kind := Kind(data[offset])
	plen := payloadLen(kind)
	if !kind.Valid() || plen < 0 {
		return Event{}, offset, ErrUnknownKind
	}
	bodyStart := offset + headerSize
	bodyEnd := bodyStart + plen
	if len(data) < bodyEnd {
		return Event{}, offset, ErrTruncated
	}

	header := Header{
		Kind:       kind,
		Frame:      encoding.Read32(data, offset+1) & frameMask,
		OriginPeer: data[offset+5],
		Meta:       Meta(data[offset+6]),
	}

	payload, err := decodeBody(kind, data[bodyStart:bodyEnd])
	if err != nil {
		return Event{}, offset, err
	}
	return Event{Header: header, Payload: payload}, bodyEnd, nil
}

func readHandle(data []byte, offset int) handle.Handle {
	return handle.Handle(encoding.Read32(data, offset))
}

func writeHandle(data []byte, offset int, h handle.Handle) {
	encoding.Write32(data, offset, uint32(h))
}

// encodeBody dispatches on the concrete payload type and writes its
// kind-specific bytes. This single exhaustive switch is the one place
// payload wire layout is defined; payloads.go only declares shapes.
func encodeBody(p Payload) []byte {
	switch v := p.(type) {
	case EmptyPayload, DestructPayload, ExitPayload:
		return nil

	case AllyPayload:
		return []byte{v.HouseID}

	case MegamissionPayload:
		b := make([]byte, 13)
		writeHandle(b, 0, v.Target)
		b[4] = v.Mission
		writeHandle(b, 5, v.AttackTarget)
		encoding.Write32(b, 9, v.Destination)
		return b

	case IdlePayload:
		return encodeTargetOnly(v.Target)
	case ScatterPayload:
		return encodeTargetOnly(v.Target)
	case DeployPayload:
		return encodeTargetOnly(v.Target)
	case RepairPayload:
		return encodeTargetOnly(v.Target)
	case SellPayload:
		return encodeTargetOnly(v.Target)
	case PrimaryPayload:
		return encodeTargetOnly(v.Target)

	case PlacePayload:
		b := make([]byte, 6)
		b[0] = v.KindTag
		b[1] = v.TypeID
		encoding.Write32(b, 2, v.Cell)
		return b

	case OptionsPayload:
		b := make([]byte, 4)
		encoding.Write32(b, 0, v.Flags)
		return b

	case GamespeedPayload:
		return []byte{v.Speed}

	case ProducePayload:
		return []byte{v.KindTag, v.TypeID}
	case SuspendPayload:
		return []byte{v.KindTag, v.TypeID}
	case AbandonPayload:
		return []byte{v.KindTag, v.TypeID}

	case SpecialPlacePayload:
		b := make([]byte, 6)
		encoding.Write16(b, 0, v.SpecialID)
		encoding.Write32(b, 2, v.Cell)
		return b

	case AnimationPayload:
		b := make([]byte, 10)
		b[0] = v.AnimType
		b[1] = v.Owner
		encoding.Write32(b, 2, v.Coord)
		encoding.Write32(b, 6, v.VisibilityMask)
		return b

	case SpecialPayload:
		b := make([]byte, 4)
		encoding.Write32(b, 0, v.Value)
		return b

	case FramesyncPayload:
		return encodeFrameCheck(v.CRC, v.CommandCount, v.Delay)
	case FrameinfoPayload:
		return encodeFrameCheck(v.CRC, v.CommandCount, v.Delay)

	case MessagePayload:
		b := make([]byte, 40)
		copy(b, v.Text[:])
		return b

	case ResponseTimePayload:
		return []byte{v.Delay}

	case ArchivePayload:
		b := make([]byte, 8)
		writeHandle(b, 0, v.A)
		writeHandle(b, 4, v.B)
		return b

	case TimingPayload:
		b := make([]byte, 4)
		encoding.Write16(b, 0, v.DesiredFrameRate)
		encoding.Write16(b, 2, v.MaxAhead)
		return b

	case ProcessTimePayload:
		b := make([]byte, 2)
		encoding.Write16(b, 0, v.AvgTicks)
		return b

	default:
		panic(fmt.Sprintf("event: encodeBody: unhandled payload type %T", p))
	}
}

func encodeTargetOnly(h handle.Handle) []byte {
	b := make([]byte, 4)
	writeHandle(b, 0, h)
	return b
}

func encodeFrameCheck(crc uint32, count uint16, delay uint8) []byte {
	b := make([]byte, 7)
	encoding.Write32(b, 0, crc)
	encoding.Write16(b, 4, count)
	b[6] = delay
	return b
}

// decodeBody parses body (already sliced to exactly payloadLen(kind)
// bytes) into the matching Payload type.
func decodeBody(kind Kind, body []byte) (Payload, error) {
	switch kind {
	case KindEmpty:
		return EmptyPayload{}, nil
	case KindDestruct:
		return DestructPayload{}, nil
	case KindExit:
		return ExitPayload{}, nil

	case KindAlly:
		return AllyPayload{HouseID: body[0]}, nil

	case KindMegamission:
		return MegamissionPayload{
			Target:       readHandle(body, 0),
			Mission:      body[4],
			AttackTarget: readHandle(body, 5),
			Destination:  encoding.Read32(body, 9),
		}, nil

	case KindIdle:
		return IdlePayload{Target: readHandle(body, 0)}, nil
	case KindScatter:
		return ScatterPayload{Target: readHandle(body, 0)}, nil
	case KindDeploy:
		return DeployPayload{Target: readHandle(body, 0)}, nil
	case KindRepair:
		return RepairPayload{Target: readHandle(body, 0)}, nil
	case KindSell:
		return SellPayload{Target: readHandle(body, 0)}, nil
	case KindPrimary:
		return PrimaryPayload{Target: readHandle(body, 0)}, nil

	case KindPlace:
		return PlacePayload{
			KindTag: body[0],
			TypeID:  body[1],
			Cell:    encoding.Read32(body, 2),
		}, nil

	case KindOptions:
		return OptionsPayload{Flags: encoding.Read32(body, 0)}, nil

	case KindGamespeed:
		return GamespeedPayload{Speed: body[0]}, nil

	case KindProduce:
		return ProducePayload{KindTag: body[0], TypeID: body[1]}, nil
	case KindSuspend:
		return SuspendPayload{KindTag: body[0], TypeID: body[1]}, nil
	case KindAbandon:
		return AbandonPayload{KindTag: body[0], TypeID: body[1]}, nil

	case KindSpecialPlace:
		return SpecialPlacePayload{
			SpecialID: encoding.Read16(body, 0),
			Cell:      encoding.Read32(body, 2),
		}, nil

	case KindAnimation:
		return AnimationPayload{
			AnimType:       body[0],
			Owner:          body[1],
			Coord:          encoding.Read32(body, 2),
			VisibilityMask: encoding.Read32(body, 6),
		}, nil

	case KindSpecial:
		return SpecialPayload{Value: encoding.Read32(body, 0)}, nil

	case KindFramesync:
		crc, count, delay := decodeFrameCheck(body)
		return FramesyncPayload{CRC: crc, CommandCount: count, Delay: delay}, nil
	case KindFrameinfo:
		crc, count, delay := decodeFrameCheck(body)
		return FrameinfoPayload{CRC: crc, CommandCount: count, Delay: delay}, nil

	case KindMessage:
		var p MessagePayload
		copy(p.Text[:], body)
		return p, nil

	case KindResponseTime:
		return ResponseTimePayload{Delay: body[0]}, nil

	case KindArchive:
		return ArchivePayload{A: readHandle(body, 0), B: readHandle(body, 4)}, nil

	case KindTiming:
		return TimingPayload{
			DesiredFrameRate: encoding.Read16(body, 0),
			MaxAhead:         encoding.Read16(body, 2),
		}, nil

	case KindProcessTime:
		return ProcessTimePayload{AvgTicks: encoding.Read16(body, 0)}, nil

	default:
		return nil, ErrUnknownKind
	}
}

func decodeFrameCheck(body []byte) (crc uint32, count uint16, delay uint8) {
	return encoding.Read32(body, 0), encoding.Read16(body, 4), body[6]
}
