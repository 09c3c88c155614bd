// Package lockstep implements the deterministic lockstep scheduler
// (§4.E), the heart of the multiplayer core. It owns the command buffer
// and hash log, decides when a frame can advance, and detects desyncs by
// comparing state hashes exchanged on sync frames.
//
// The scheduler is deliberately single-threaded: queue, receive, and step
// all run on the same thread as the simulation (§5). Any concurrency
// here would itself be a source of nondeterminism, so this package holds
// no mutex and makes no goroutine of its own.
package lockstep

import (
	"sort"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/event"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
)

// Config holds the scheduler's tunable timing parameters.
type Config struct {
	// CommandDelay is how many frames in the future a locally queued
	// command is scheduled to execute.
	CommandDelay uint32

	// SyncInterval is the frame period on which a state hash is
	// computed and exchanged.
	SyncInterval uint32

	// MaxFrameAhead is how far current_frame may outrun the slowest
	// peer's last reported frame before step() blocks.
	MaxFrameAhead uint32

	// TimeoutFrames is how many frames a peer may go silent before it
	// is considered disconnected.
	TimeoutFrames uint32
}

// DefaultConfig returns the defaults named in §4.E.
func DefaultConfig() Config {
	return Config{
		CommandDelay:  3,
		SyncInterval:  15,
		MaxFrameAhead: 10,
		TimeoutFrames: 90,
	}
}

// Outcome is the result tag returned by Step.
type Outcome uint8

const (
	// Advanced means current_frame incremented and, if applicable, a
	// frame of events was delivered to the simulation.
	Advanced Outcome = iota
	// Waiting means step() could not advance: either the local peer is
	// too far ahead of the slowest peer (backpressure) or the current
	// frame's command set is still incomplete.
	Waiting
	// Desynced means the scheduler has a sticky mismatch recorded; once
	// set it is returned in place of Advanced by every step() that
	// advances. A step() that cannot advance still returns Waiting.
	Desynced
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "Advanced"
	case Waiting:
		return "Waiting"
	case Desynced:
		return "Desynced"
	default:
		return "Unknown"
	}
}

// StepResult is the return value of Step.
type StepResult struct {
	Outcome Outcome
	// Peers is populated when Outcome == Waiting: the peer ids that are
	// blocking the advance (either the slowest reporters, under
	// backpressure, or the peers missing from the current frame).
	Peers []int
	// Frame is populated when Outcome == Desynced: the frame on which
	// the mismatch was first detected.
	Frame uint32
}

// DesyncInfo records a detected state hash mismatch. It is sticky: once
// set it is never cleared by the scheduler itself (§4.E, §8 property 7).
type DesyncInfo struct {
	Frame          uint32
	MismatchedPeer int
}

// Simulation is the external collaborator that owns object heaps and
// executes events (§6). The scheduler never touches heaps directly.
type Simulation interface {
	// ExecuteFrame delivers one frame's events in their final, ordered
	// form: sorted by peer id ascending, then by per-peer submission
	// order.
	ExecuteFrame(events []event.Event)
	// StateHash computes the deterministic CRC for the given frame.
	StateHash(frame uint32) uint32
}

// Broadcaster fans FRAME_DATA and SYNC_CHECK packets out to every peer
// over the reliable channel (§4.G, §4.H). Implemented by the transport
// layer; kept as a narrow interface here to avoid an import cycle.
type Broadcaster interface {
	BroadcastFrameData(frame uint32, peer int, events []event.Event) error
	BroadcastSyncCheck(frame uint32, peer int, crc uint32) error
}

// OnDesync is called once, the moment a mismatch is first detected,
// surfacing §6's on_desync(frame, local_crc, remote_crc, remote_peer)
// interface to session/UI logic.
type OnDesync func(frame uint32, localCRC, remoteCRC uint32, remotePeer int)

// Scheduler is one peer's view of the lockstep state machine.
type Scheduler struct {
	config Config

	localPeer int
	peers     []int // all known participants, including localPeer, ascending

	sim         Simulation
	broadcaster Broadcaster
	onDesync    OnDesync

	currentFrame uint32

	commandBuffer map[uint32]map[int][]event.Event
	peerFrames    map[int]uint32
	localPending  map[uint32][]event.Event
	hashLog       map[uint32]map[int]uint32

	desync *DesyncInfo
}

// New creates a scheduler for localPeer among the given peers (which
// must include localPeer). Peers are kept sorted ascending so frame
// delivery order is deterministic without re-sorting on every step.
func New(cfg Config, localPeer int, peers []int, sim Simulation, broadcaster Broadcaster, onDesync OnDesync) *Scheduler {
	sorted := append([]int(nil), peers...)
	sort.Ints(sorted)

	return &Scheduler{
		config:        cfg,
		localPeer:     localPeer,
		peers:         sorted,
		sim:           sim,
		broadcaster:   broadcaster,
		onDesync:      onDesync,
		commandBuffer: make(map[uint32]map[int][]event.Event),
		peerFrames:    make(map[int]uint32),
		localPending:  make(map[uint32][]event.Event),
		hashLog:       make(map[uint32]map[int]uint32),
	}
}

// CurrentFrame returns the scheduler's current frame number.
func (s *Scheduler) CurrentFrame() uint32 { return s.currentFrame }

// Desync returns the sticky desync record, or nil if no mismatch has
// been detected.
func (s *Scheduler) Desync() *DesyncInfo { return s.desync }

// QueueCommand stamps ev with the local peer id and schedules it for
// execution at current_frame + CommandDelay.
func (s *Scheduler) QueueCommand(ev event.Event) {
	ev.Header.OriginPeer = uint8(s.localPeer)
	target := s.currentFrame + s.config.CommandDelay
	s.localPending[target] = append(s.localPending[target], ev)
}

// Step is the driving call, invoked once per tick by the host loop.
func (s *Scheduler) Step() StepResult {
	s.flushLocalPending()

	if waiting, peers := s.backpressureWait(); waiting {
		return StepResult{Outcome: Waiting, Peers: peers}
	}

	missing := s.missingPeersForFrame(s.currentFrame)
	if len(missing) > 0 {
		return StepResult{Outcome: Waiting, Peers: missing}
	}

	events := s.orderedEventsForFrame(s.currentFrame)
	s.sim.ExecuteFrame(events)

	if s.config.SyncInterval > 0 && s.currentFrame%s.config.SyncInterval == 0 {
		s.fileLocalHash(s.currentFrame)
	}

	s.garbageCollect(s.currentFrame)

	s.currentFrame++

	if s.desync != nil {
		return StepResult{Outcome: Desynced, Frame: s.desync.Frame}
	}
	return StepResult{Outcome: Advanced}
}

// flushLocalPending broadcasts and files the local peer's commands
// scheduled for current_frame + CommandDelay (§4.E step a).
func (s *Scheduler) flushLocalPending() {
	target := s.currentFrame + s.config.CommandDelay
	events := s.localPending[target]
	delete(s.localPending, target)

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastFrameData(target, s.localPeer, events); err != nil {
			log.Warn("broadcast frame data failed", log.Frame(target), log.Err(err))
		}
	}
	s.fileFrameData(target, s.localPeer, events)
}

// backpressureWait implements §4.E step b: if the local peer has run too
// far ahead of the slowest reporting peer, block.
func (s *Scheduler) backpressureWait() (bool, []int) {
	if len(s.peerFrames) == 0 {
		return false, nil
	}
	var minReported uint32
	first := true
	for _, f := range s.peerFrames {
		if first || f < minReported {
			minReported = f
			first = false
		}
	}
	if s.currentFrame < minReported {
		return false, nil
	}
	if s.currentFrame-minReported < s.config.MaxFrameAhead {
		return false, nil
	}
	var slowest []int
	for peer, f := range s.peerFrames {
		if f == minReported {
			slowest = append(slowest, peer)
		}
	}
	sort.Ints(slowest)
	return true, slowest
}

// missingPeersForFrame returns the peers (in ascending order) that have
// not yet filed a command list for frame. Frames below CommandDelay are
// always complete: no peer can schedule a command that early.
func (s *Scheduler) missingPeersForFrame(frame uint32) []int {
	if frame < s.config.CommandDelay {
		return nil
	}
	filed := s.commandBuffer[frame]
	var missing []int
	for _, peer := range s.peers {
		if filed == nil {
			missing = append(missing, peer)
			continue
		}
		if _, ok := filed[peer]; !ok {
			missing = append(missing, peer)
		}
	}
	return missing
}

// orderedEventsForFrame concatenates each peer's filed list, ascending
// by peer id, preserving per-peer submission order (§4.E step d, §8
// property 4).
func (s *Scheduler) orderedEventsForFrame(frame uint32) []event.Event {
	filed := s.commandBuffer[frame]
	var out []event.Event
	for _, peer := range s.peers {
		out = append(out, filed[peer]...)
	}
	return out
}

// ReceiveFrameData files a remote peer's command list for frame. A
// duplicate report for a frame already filed is discarded
// (first-write-wins, §4.E Failure semantics).
func (s *Scheduler) ReceiveFrameData(peer int, frame uint32, events []event.Event) {
	if existing, ok := s.commandBuffer[frame]; ok {
		if _, already := existing[peer]; already {
			log.Warn("duplicate frame data discarded", log.Peer(peer), log.Frame(frame))
			return
		}
	}
	s.fileFrameData(frame, peer, events)
	if frame > s.peerFrames[peer] {
		s.peerFrames[peer] = frame
	}
}

func (s *Scheduler) fileFrameData(frame uint32, peer int, events []event.Event) {
	bucket, ok := s.commandBuffer[frame]
	if !ok {
		bucket = make(map[int][]event.Event)
		s.commandBuffer[frame] = bucket
	}
	bucket[peer] = events
}

func (s *Scheduler) fileLocalHash(frame uint32) {
	crc := s.sim.StateHash(frame)
	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastSyncCheck(frame, s.localPeer, crc); err != nil {
			log.Warn("broadcast sync check failed", log.Frame(frame), log.Err(err))
		}
	}
	s.fileHash(frame, s.localPeer, crc)
}

// ReceiveSyncCheck files a peer's reported state hash for frame. Once
// every known peer has filed for frame, the hashes are compared; any
// mismatch sets the sticky desync record and fires OnDesync.
func (s *Scheduler) ReceiveSyncCheck(peer int, frame uint32, crc uint32) {
	s.fileHash(frame, peer, crc)
}

func (s *Scheduler) fileHash(frame uint32, peer int, crc uint32) {
	bucket, ok := s.hashLog[frame]
	if !ok {
		bucket = make(map[int]uint32)
		s.hashLog[frame] = bucket
	}
	bucket[peer] = crc
	s.checkSyncFrame(frame)
}

// checkSyncFrame compares hashes for frame once every known peer has
// filed one (§4.E step 4, §8 property 7).
func (s *Scheduler) checkSyncFrame(frame uint32) {
	if s.desync != nil {
		return
	}
	bucket := s.hashLog[frame]
	for _, peer := range s.peers {
		if _, ok := bucket[peer]; !ok {
			return
		}
	}
	reference := bucket[s.localPeer]
	for _, peer := range s.peers {
		if peer == s.localPeer {
			continue
		}
		if bucket[peer] != reference {
			s.desync = &DesyncInfo{Frame: frame, MismatchedPeer: peer}
			log.DesyncDetected(frame, peer)
			if s.onDesync != nil {
				s.onDesync(frame, reference, bucket[peer], peer)
			}
			return
		}
	}
}

// RemovePeer evicts peer from the scheduler's bookkeeping (§5
// Cancellation & timeouts, §8 scenario S6): its reported frame is
// dropped so it no longer holds back backpressure or completeness
// checks, its buffered command lists are discarded, and it is removed
// from the participant list.
func (s *Scheduler) RemovePeer(peer int) {
	delete(s.peerFrames, peer)
	for _, bucket := range s.commandBuffer {
		delete(bucket, peer)
	}
	for i, p := range s.peers {
		if p == peer {
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			break
		}
	}
}

// garbageCollect drops command buffer and hash log entries older than
// current_frame - 60 (§4.E step f).
func (s *Scheduler) garbageCollect(currentFrame uint32) {
	const retain = 60
	if currentFrame <= retain {
		return
	}
	cutoff := currentFrame - retain
	for frame := range s.commandBuffer {
		if frame < cutoff {
			delete(s.commandBuffer, frame)
		}
	}
	for frame := range s.hashLog {
		if frame < cutoff {
			delete(s.hashLog, frame)
		}
	}
}
