package protocol

import (
	"errors"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/encoding"
)

// ErrPayloadTooShort is returned by the per-kind decoders when fewer
// bytes are present than the payload's fixed or declared-length shape
// requires.
var ErrPayloadTooShort = errors.New("protocol: payload too short")

const nameFieldLen = 12

func encodeName(name string) [nameFieldLen]byte {
	var out [nameFieldLen]byte
	if len(name) > nameFieldLen {
		name = name[:nameFieldLen]
	}
	copy(out[:], name)
	return out
}

func decodeName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func encodeString16(b []byte, offset int, s string) int {
	encoding.Write16(b, offset, uint16(len(s)))
	copy(b[offset+2:], s)
	return offset + 2 + len(s)
}

func decodeString16(b []byte, offset int) (string, int, error) {
	if len(b)-offset < 2 {
		return "", offset, ErrPayloadTooShort
	}
	n := int(encoding.Read16(b, offset))
	offset += 2
	if len(b)-offset < n {
		return "", offset, ErrPayloadTooShort
	}
	return string(b[offset : offset+n]), offset + n, nil
}

// HelloPayload announces a joining peer: its display name and the
// protocol version it speaks.
type HelloPayload struct {
	Name    string
	Version uint8
}

func EncodeHello(p HelloPayload) []byte {
	name := encodeName(p.Name)
	out := make([]byte, nameFieldLen+1)
	copy(out, name[:])
	out[nameFieldLen] = p.Version
	return out
}

func DecodeHello(b []byte) (HelloPayload, error) {
	if len(b) < nameFieldLen+1 {
		return HelloPayload{}, ErrPayloadTooShort
	}
	return HelloPayload{Name: decodeName(b[:nameFieldLen]), Version: b[nameFieldLen]}, nil
}

// WelcomePayload assigns a peer id to the joining connection and reports
// the current lobby size.
type WelcomePayload struct {
	AssignedPeerID uint8
	PeerCount      uint8
}

func EncodeWelcome(p WelcomePayload) []byte {
	return []byte{p.AssignedPeerID, p.PeerCount}
}

func DecodeWelcome(b []byte) (WelcomePayload, error) {
	if len(b) < 2 {
		return WelcomePayload{}, ErrPayloadTooShort
	}
	return WelcomePayload{AssignedPeerID: b[0], PeerCount: b[1]}, nil
}

// RejectPayload explains why a HELLO was refused.
type RejectPayload struct {
	Reason string
}

func EncodeReject(p RejectPayload) []byte {
	out := make([]byte, 2+len(p.Reason))
	encodeString16(out, 0, p.Reason)
	return out
}

func DecodeReject(b []byte) (RejectPayload, error) {
	reason, _, err := decodeString16(b, 0)
	if err != nil {
		return RejectPayload{}, err
	}
	return RejectPayload{Reason: reason}, nil
}

// RosterEntry is one peer's lobby-visible state (§3 peer roster).
type RosterEntry struct {
	PeerID  uint8
	Name    string
	Faction uint8
	Color   uint8
	Ready   bool
}

const rosterEntrySize = 1 + nameFieldLen + 1 + 1 + 1

func encodeRosterEntry(b []byte, offset int, e RosterEntry) {
	b[offset] = e.PeerID
	name := encodeName(e.Name)
	copy(b[offset+1:], name[:])
	b[offset+1+nameFieldLen] = e.Faction
	b[offset+2+nameFieldLen] = e.Color
	if e.Ready {
		b[offset+3+nameFieldLen] = 1
	}
}

func decodeRosterEntry(b []byte, offset int) RosterEntry {
	return RosterEntry{
		PeerID:  b[offset],
		Name:    decodeName(b[offset+1 : offset+1+nameFieldLen]),
		Faction: b[offset+1+nameFieldLen],
		Color:   b[offset+2+nameFieldLen],
		Ready:   b[offset+3+nameFieldLen] != 0,
	}
}

// LobbyStatePayload is the full roster snapshot sent to a newly joined
// peer and on any roster change.
type LobbyStatePayload struct {
	Roster []RosterEntry
}

func EncodeLobbyState(p LobbyStatePayload) []byte {
	out := make([]byte, 1+rosterEntrySize*len(p.Roster))
	out[0] = uint8(len(p.Roster))
	for i, e := range p.Roster {
		encodeRosterEntry(out, 1+i*rosterEntrySize, e)
	}
	return out
}

func DecodeLobbyState(b []byte) (LobbyStatePayload, error) {
	if len(b) < 1 {
		return LobbyStatePayload{}, ErrPayloadTooShort
	}
	count := int(b[0])
	if len(b)-1 < count*rosterEntrySize {
		return LobbyStatePayload{}, ErrPayloadTooShort
	}
	out := make([]RosterEntry, count)
	for i := 0; i < count; i++ {
		out[i] = decodeRosterEntry(b, 1+i*rosterEntrySize)
	}
	return LobbyStatePayload{Roster: out}, nil
}

// PlayerJoinPayload announces one new roster entry.
type PlayerJoinPayload struct {
	Entry RosterEntry
}

func EncodePlayerJoin(p PlayerJoinPayload) []byte {
	out := make([]byte, rosterEntrySize)
	encodeRosterEntry(out, 0, p.Entry)
	return out
}

func DecodePlayerJoin(b []byte) (PlayerJoinPayload, error) {
	if len(b) < rosterEntrySize {
		return PlayerJoinPayload{}, ErrPayloadTooShort
	}
	return PlayerJoinPayload{Entry: decodeRosterEntry(b, 0)}, nil
}

// PlayerLeavePayload announces a peer's departure and why.
type PlayerLeavePayload struct {
	PeerID uint8
	Reason string
}

func EncodePlayerLeave(p PlayerLeavePayload) []byte {
	out := make([]byte, 1+2+len(p.Reason))
	out[0] = p.PeerID
	encodeString16(out, 1, p.Reason)
	return out
}

func DecodePlayerLeave(b []byte) (PlayerLeavePayload, error) {
	if len(b) < 1 {
		return PlayerLeavePayload{}, ErrPayloadTooShort
	}
	reason, _, err := decodeString16(b, 1)
	if err != nil {
		return PlayerLeavePayload{}, err
	}
	return PlayerLeavePayload{PeerID: b[0], Reason: reason}, nil
}

// ChatMessagePayload carries one lobby chat line.
type ChatMessagePayload struct {
	PeerID uint8
	Text   string
}

func EncodeChatMessage(p ChatMessagePayload) []byte {
	out := make([]byte, 1+2+len(p.Text))
	out[0] = p.PeerID
	encodeString16(out, 1, p.Text)
	return out
}

func DecodeChatMessage(b []byte) (ChatMessagePayload, error) {
	if len(b) < 1 {
		return ChatMessagePayload{}, ErrPayloadTooShort
	}
	text, _, err := decodeString16(b, 1)
	if err != nil {
		return ChatMessagePayload{}, err
	}
	return ChatMessagePayload{PeerID: b[0], Text: text}, nil
}

// PlayerReadyPayload toggles one peer's ready flag.
type PlayerReadyPayload struct {
	PeerID uint8
	Ready  bool
}

func EncodePlayerReady(p PlayerReadyPayload) []byte {
	ready := byte(0)
	if p.Ready {
		ready = 1
	}
	return []byte{p.PeerID, ready}
}

func DecodePlayerReady(b []byte) (PlayerReadyPayload, error) {
	if len(b) < 2 {
		return PlayerReadyPayload{}, ErrPayloadTooShort
	}
	return PlayerReadyPayload{PeerID: b[0], Ready: b[1] != 0}, nil
}

// GameSettingsPayload mirrors session.Options on the wire (§4.F: changing
// options broadcasts GAME_SETTINGS; peers apply atomically on receipt).
type GameSettingsPayload struct {
	Credits    uint32
	TechLevel  uint8
	UnitCap    uint16
	CratesOn   bool
	TiberiumOn bool
	BasesOn    bool
	GameSpeed  uint8
}

const (
	gameSettingsFlagCrates   = 1 << 0
	gameSettingsFlagTiberium = 1 << 1
	gameSettingsFlagBases    = 1 << 2
)

func EncodeGameSettings(p GameSettingsPayload) []byte {
	out := make([]byte, 9)
	encoding.Write32(out, 0, p.Credits)
	out[4] = p.TechLevel
	encoding.Write16(out, 5, p.UnitCap)
	var flags uint8
	if p.CratesOn {
		flags |= gameSettingsFlagCrates
	}
	if p.TiberiumOn {
		flags |= gameSettingsFlagTiberium
	}
	if p.BasesOn {
		flags |= gameSettingsFlagBases
	}
	out[7] = flags
	out[8] = p.GameSpeed
	return out
}

func DecodeGameSettings(b []byte) (GameSettingsPayload, error) {
	if len(b) < 9 {
		return GameSettingsPayload{}, ErrPayloadTooShort
	}
	flags := b[7]
	return GameSettingsPayload{
		Credits:    encoding.Read32(b, 0),
		TechLevel:  b[4],
		UnitCap:    encoding.Read16(b, 5),
		CratesOn:   flags&gameSettingsFlagCrates != 0,
		TiberiumOn: flags&gameSettingsFlagTiberium != 0,
		BasesOn:    flags&gameSettingsFlagBases != 0,
		GameSpeed:  b[8],
	}, nil
}

// StartCountdownPayload begins the pre-game countdown.
type StartCountdownPayload struct {
	Seconds uint8
}

func EncodeStartCountdown(p StartCountdownPayload) []byte {
	return []byte{p.Seconds}
}

func DecodeStartCountdown(b []byte) (StartCountdownPayload, error) {
	if len(b) < 1 {
		return StartCountdownPayload{}, ErrPayloadTooShort
	}
	return StartCountdownPayload{Seconds: b[0]}, nil
}

// CancelCountdownPayload aborts a pending countdown; it carries no data.
type CancelCountdownPayload struct{}

func EncodeCancelCountdown(CancelCountdownPayload) []byte { return nil }

func DecodeCancelCountdown([]byte) (CancelCountdownPayload, error) {
	return CancelCountdownPayload{}, nil
}

// GameStartPayload hands every peer the master seed, scenario, and final
// roster order used to seed the simulation identically everywhere.
type GameStartPayload struct {
	Seed       uint32
	ScenarioID string
	Roster     []uint8
}

func EncodeGameStart(p GameStartPayload) []byte {
	size := 4 + 2 + len(p.ScenarioID) + 1 + len(p.Roster)
	out := make([]byte, size)
	encoding.Write32(out, 0, p.Seed)
	next := encodeString16(out, 4, p.ScenarioID)
	out[next] = uint8(len(p.Roster))
	copy(out[next+1:], p.Roster)
	return out
}

func DecodeGameStart(b []byte) (GameStartPayload, error) {
	if len(b) < 4 {
		return GameStartPayload{}, ErrPayloadTooShort
	}
	seed := encoding.Read32(b, 0)
	scenario, next, err := decodeString16(b, 4)
	if err != nil {
		return GameStartPayload{}, err
	}
	if len(b)-next < 1 {
		return GameStartPayload{}, ErrPayloadTooShort
	}
	count := int(b[next])
	next++
	if len(b)-next < count {
		return GameStartPayload{}, ErrPayloadTooShort
	}
	roster := make([]uint8, count)
	copy(roster, b[next:next+count])
	return GameStartPayload{Seed: seed, ScenarioID: scenario, Roster: roster}, nil
}

// FrameDataPayload carries one frame's ordered, already-encoded event
// stream (§4.E, §4.H).
type FrameDataPayload struct {
	Frame  uint32
	Peer   uint8
	Events []byte // concatenated event.Encode output
}

func EncodeFrameData(p FrameDataPayload) []byte {
	out := make([]byte, 4+1+2+len(p.Events))
	encoding.Write32(out, 0, p.Frame)
	out[4] = p.Peer
	encoding.Write16(out, 5, uint16(len(p.Events)))
	copy(out[7:], p.Events)
	return out
}

func DecodeFrameData(b []byte) (FrameDataPayload, error) {
	if len(b) < 7 {
		return FrameDataPayload{}, ErrPayloadTooShort
	}
	n := int(encoding.Read16(b, 5))
	if len(b)-7 < n {
		return FrameDataPayload{}, ErrPayloadTooShort
	}
	events := make([]byte, n)
	copy(events, b[7:7+n])
	return FrameDataPayload{
		Frame:  encoding.Read32(b, 0),
		Peer:   b[4],
		Events: events,
	}, nil
}

// SyncCheckPayload carries one peer's state hash for a sync frame
// (§4.D, §4.E).
type SyncCheckPayload struct {
	Frame uint32
	Peer  uint8
	CRC   uint32
}

func EncodeSyncCheck(p SyncCheckPayload) []byte {
	out := make([]byte, 9)
	encoding.Write32(out, 0, p.Frame)
	out[4] = p.Peer
	encoding.Write32(out, 5, p.CRC)
	return out
}

func DecodeSyncCheck(b []byte) (SyncCheckPayload, error) {
	if len(b) < 9 {
		return SyncCheckPayload{}, ErrPayloadTooShort
	}
	return SyncCheckPayload{
		Frame: encoding.Read32(b, 0),
		Peer:  b[4],
		CRC:   encoding.Read32(b, 5),
	}, nil
}

// DesyncDetectedPayload surfaces a confirmed mismatch to every peer.
type DesyncDetectedPayload struct {
	Frame      uint32
	RemotePeer uint8
	LocalCRC   uint32
	RemoteCRC  uint32
}

func EncodeDesyncDetected(p DesyncDetectedPayload) []byte {
	out := make([]byte, 13)
	encoding.Write32(out, 0, p.Frame)
	out[4] = p.RemotePeer
	encoding.Write32(out, 5, p.LocalCRC)
	encoding.Write32(out, 9, p.RemoteCRC)
	return out
}

func DecodeDesyncDetected(b []byte) (DesyncDetectedPayload, error) {
	if len(b) < 13 {
		return DesyncDetectedPayload{}, ErrPayloadTooShort
	}
	return DesyncDetectedPayload{
		Frame:      encoding.Read32(b, 0),
		RemotePeer: b[4],
		LocalCRC:   encoding.Read32(b, 5),
		RemoteCRC:  encoding.Read32(b, 9),
	}, nil
}
