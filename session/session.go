// Package session implements per-game configuration and the peer roster
// (§4.F): the fixed-schema option record, unique session id, and the
// host-only mutations that broadcast GAME_SETTINGS on change.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownOption is returned by SetOption for a key outside the fixed
// schema (§4.F: "unknown keys are rejected").
var ErrUnknownOption = errors.New("session: unknown option")

// ErrNotHost is returned when a non-host peer attempts a host-only
// mutation.
var ErrNotHost = errors.New("session: only the host may do that")

// ErrPeerExists is returned by AddPeer for a peer id already on the
// roster.
var ErrPeerExists = errors.New("session: peer already present")

// ErrUnknownPeer is returned by RemovePeer/SetReady for a peer id not on
// the roster.
var ErrUnknownPeer = errors.New("session: unknown peer")

// ID is a 31-bit session identifier, unique enough to disambiguate
// simultaneous LAN advertisements. It has no bearing on simulation
// determinism.
type ID uint32

// NewID derives a 31-bit session id from a random UUID folded with the
// given timestamp, so two hosts starting within the same instant still
// advertise distinct ids.
func NewID(now time.Time) ID {
	u := uuid.New()
	var fold uint32
	for _, b := range u {
		fold = fold*31 + uint32(b)
	}
	fold ^= uint32(now.UnixNano())
	return ID(fold & 0x7FFFFFFF)
}

// Options is the fixed-schema game-options record (§3, §4.F). There is no
// open-ended key/value map: every field the protocol can carry is named
// here, and SetOption rejects anything else.
type Options struct {
	Credits    uint32
	TechLevel  uint8
	UnitCap    uint16
	CratesOn   bool
	TiberiumOn bool
	BasesOn    bool
	GameSpeed  uint8 // 1-6
}

// DefaultOptions returns a reasonable starting configuration.
func DefaultOptions() Options {
	return Options{
		Credits:    5000,
		TechLevel:  10,
		UnitCap:    200,
		CratesOn:   true,
		TiberiumOn: true,
		BasesOn:    true,
		GameSpeed:  4,
	}
}

// OptionKey names a settable field in Options, for SetOption's fixed
// schema.
type OptionKey string

const (
	OptionCredits    OptionKey = "credits"
	OptionTechLevel  OptionKey = "tech_level"
	OptionUnitCap    OptionKey = "unit_cap"
	OptionCratesOn   OptionKey = "crates_on"
	OptionTiberiumOn OptionKey = "tiberium_on"
	OptionBasesOn    OptionKey = "bases_on"
	OptionGameSpeed  OptionKey = "game_speed"
)

// Peer is one roster entry (§3 Peer endpoint's session-visible fields).
type Peer struct {
	ID        int
	Name      string // truncated to 12 bytes on the wire
	Faction   uint8
	Color     uint8
	Ready     bool
	LastHeard time.Time
}

// Session holds one game's configuration and peer roster.
type Session struct {
	id       ID
	hostPeer int
	scenario string
	options  Options
	roster   map[int]*Peer
	order    []int // roster insertion order, for deterministic roster() output

	// OnSettingsChanged is invoked after a successful SetOption, giving
	// the caller a chance to broadcast GAME_SETTINGS (§4.F).
	OnSettingsChanged func(Options)
}

// New creates a session hosted by hostPeer.
func New(id ID, hostPeer int, scenario string, options Options) *Session {
	return &Session{
		id:       id,
		hostPeer: hostPeer,
		scenario: scenario,
		options:  options,
		roster:   make(map[int]*Peer),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() ID { return s.id }

// Scenario returns the scenario identifier.
func (s *Session) Scenario() string { return s.scenario }

// Options returns the current options record.
func (s *Session) Options() Options { return s.options }

// IsHost reports whether peer is this session's host.
func (s *Session) IsHost(peer int) bool { return peer == s.hostPeer }

// AddPeer adds a new roster entry.
func (s *Session) AddPeer(p Peer) error {
	if _, exists := s.roster[p.ID]; exists {
		return ErrPeerExists
	}
	stored := p
	s.roster[p.ID] = &stored
	s.order = append(s.order, p.ID)
	return nil
}

// RemovePeer removes a peer from the roster.
func (s *Session) RemovePeer(id int) error {
	if _, ok := s.roster[id]; !ok {
		return ErrUnknownPeer
	}
	delete(s.roster, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetReady marks a peer's ready flag.
func (s *Session) SetReady(id int, ready bool) error {
	p, ok := s.roster[id]
	if !ok {
		return ErrUnknownPeer
	}
	p.Ready = ready
	return nil
}

// Touch records that a peer was just heard from, for transport-level
// timeout tracking layered on top of the roster.
func (s *Session) Touch(id int, at time.Time) {
	if p, ok := s.roster[id]; ok {
		p.LastHeard = at
	}
}

// Roster returns the peer list in join order, the order the protocol's
// LOBBY_STATE packet enumerates it in.
func (s *Session) Roster() []Peer {
	out := make([]Peer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.roster[id])
	}
	return out
}

// AllReady reports whether every roster entry is ready. An empty roster
// is not ready (there is no one to start a game with).
func (s *Session) AllReady() bool {
	if len(s.roster) == 0 {
		return false
	}
	for _, p := range s.roster {
		if !p.Ready {
			return false
		}
	}
	return true
}

// SetOption mutates a single option by key. Only the host may call this;
// unknown keys are rejected (§4.F). On success OnSettingsChanged, if set,
// is invoked with the new Options so the caller can broadcast
// GAME_SETTINGS.
func (s *Session) SetOption(actingPeer int, key OptionKey, value any) error {
	if !s.IsHost(actingPeer) {
		return ErrNotHost
	}
	opts := s.options
	switch key {
	case OptionCredits:
		v, ok := value.(uint32)
		if !ok {
			return ErrUnknownOption
		}
		opts.Credits = v
	case OptionTechLevel:
		v, ok := value.(uint8)
		if !ok {
			return ErrUnknownOption
		}
		opts.TechLevel = v
	case OptionUnitCap:
		v, ok := value.(uint16)
		if !ok {
			return ErrUnknownOption
		}
		opts.UnitCap = v
	case OptionCratesOn:
		v, ok := value.(bool)
		if !ok {
			return ErrUnknownOption
		}
		opts.CratesOn = v
	case OptionTiberiumOn:
		v, ok := value.(bool)
		if !ok {
			return ErrUnknownOption
		}
		opts.TiberiumOn = v
	case OptionBasesOn:
		v, ok := value.(bool)
		if !ok {
			return ErrUnknownOption
		}
		opts.BasesOn = v
	case OptionGameSpeed:
		v, ok := value.(uint8)
		if !ok || v < 1 || v > 6 {
			return ErrUnknownOption
		}
		opts.GameSpeed = v
	default:
		return ErrUnknownOption
	}
	s.options = opts
	if s.OnSettingsChanged != nil {
		s.OnSettingsChanged(s.options)
	}
	return nil
}
