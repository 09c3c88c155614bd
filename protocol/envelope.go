// Package protocol implements the lobby/game-sync wire protocol (§4.H):
// a 4-byte envelope in front of every packet, and the kind-specific
// payload codecs carried over the transport layer's reliable channel.
package protocol

import (
	"errors"
	"fmt"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/encoding"
)

// CurrentVersion is the only protocol version this build speaks.
const CurrentVersion uint8 = 1

// envelopeSize is version(1) + kind(1) + length_lo(1) + length_hi(1).
const envelopeSize = 4

// ErrVersionMismatch is a protocol violation: the envelope names a
// version this build does not speak (§7).
var ErrVersionMismatch = errors.New("protocol: version mismatch")

// ErrTruncatedEnvelope means fewer than 4 bytes were available to read
// an envelope.
var ErrTruncatedEnvelope = errors.New("protocol: truncated envelope")

// ErrTruncatedPayload means the envelope's declared length exceeds the
// bytes actually available.
var ErrTruncatedPayload = errors.New("protocol: truncated payload")

// ErrUnknownKind is logged and the packet skipped per §4.H ("unknown
// kind is logged and skipped"); decoding callers that want to treat it
// as fatal may do so themselves.
var ErrUnknownKind = errors.New("protocol: unknown kind")

// Kind enumerates the packet kinds this build understands. Unlike
// event.Kind this set is not closed by the wire contract — §4.H phrases
// it as "packet kinds include", so new kinds may be appended, but never
// reordered or renumbered once shipped.
type Kind uint8

const (
	KindHello Kind = iota
	KindWelcome
	KindReject

	KindLobbyState
	KindPlayerJoin
	KindPlayerLeave
	KindChatMessage
	KindPlayerReady
	KindGameSettings
	KindStartCountdown
	KindCancelCountdown

	KindGameStart
	KindFrameData
	KindSyncCheck
	KindDesyncDetected

	// KindPing and KindPong implement the §4.G heartbeat; the reliable
	// channel sends an empty PING roughly once a second, and the
	// datagram channel may also carry them.
	KindPing
	KindPong

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "HELLO"
	case KindWelcome:
		return "WELCOME"
	case KindReject:
		return "REJECT"
	case KindLobbyState:
		return "LOBBY_STATE"
	case KindPlayerJoin:
		return "PLAYER_JOIN"
	case KindPlayerLeave:
		return "PLAYER_LEAVE"
	case KindChatMessage:
		return "CHAT_MESSAGE"
	case KindPlayerReady:
		return "PLAYER_READY"
	case KindGameSettings:
		return "GAME_SETTINGS"
	case KindStartCountdown:
		return "START_COUNTDOWN"
	case KindCancelCountdown:
		return "CANCEL_COUNTDOWN"
	case KindGameStart:
		return "GAME_START"
	case KindFrameData:
		return "FRAME_DATA"
	case KindSyncCheck:
		return "SYNC_CHECK"
	case KindDesyncDetected:
		return "DESYNC_DETECTED"
	case KindPing:
		return "PING"
	case KindPong:
		return "PONG"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) Valid() bool { return k < kindCount }

// Packet is one envelope plus its opaque payload bytes; the kind-specific
// codecs in packets.go encode/decode the payload.
type Packet struct {
	Kind    Kind
	Payload []byte
}

// Encode writes the 4-byte envelope followed by Payload. The length
// field is little-endian per §4.H ("all multi-byte integers within
// payloads are little-endian"); it is split into length_lo/length_hi
// bytes, which is exactly a little-endian uint16.
func Encode(p Packet) ([]byte, error) {
	if len(p.Payload) > 0xFFFF {
		return nil, fmt.Errorf("protocol: payload too large: %d bytes", len(p.Payload))
	}
	out := make([]byte, envelopeSize+len(p.Payload))
	out[0] = CurrentVersion
	out[1] = byte(p.Kind)
	encoding.Write16(out, 2, uint16(len(p.Payload)))
	copy(out[envelopeSize:], p.Payload)
	return out, nil
}

// Decode reads one packet from data. It returns ErrVersionMismatch for a
// version this build doesn't speak and ErrTruncatedPayload/
// ErrTruncatedEnvelope for short reads; both are protocol violations
// that should close the connection (§7). A packet of a kind this build
// doesn't know yields ErrUnknownKind.
func Decode(data []byte) (Packet, error) {
	if len(data) < envelopeSize {
		return Packet{}, ErrTruncatedEnvelope
	}
	version := data[0]
	if version != CurrentVersion {
		return Packet{}, ErrVersionMismatch
	}
	kind := Kind(data[1])
	length := encoding.Read16(data, 2)
	if len(data)-envelopeSize < int(length) {
		return Packet{}, ErrTruncatedPayload
	}
	if !kind.Valid() {
		return Packet{}, ErrUnknownKind
	}
	payload := make([]byte, length)
	copy(payload, data[envelopeSize:envelopeSize+int(length)])
	return Packet{Kind: kind, Payload: payload}, nil
}
