package transport

import (
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/protocol"
)

// heartbeatInterval is how often an empty PING is sent on every
// reliable channel (§4.G: "run a heartbeat every ~1 second").
const heartbeatInterval = time.Second

// PeerLostReason names why an endpoint was evicted.
type PeerLostReason string

const (
	ReasonTimeout  PeerLostReason = "timeout"
	ReasonProtocol PeerLostReason = "protocol"
	ReasonIOError  PeerLostReason = "io_error"
)

// PeerEvent surfaces a peer lifecycle change to session logic (§6
// on_peer_left, §7 propagation policy).
type PeerEvent struct {
	PeerID int
	Reason PeerLostReason
}

// ReceivedPacket pairs a decoded packet with the peer that sent it.
type ReceivedPacket struct {
	PeerID int
	Packet protocol.Packet
}

// PollResult is everything one Poll call observed.
type PollResult struct {
	Messages []ReceivedPacket
	Events   []PeerEvent
}

// Transport owns every peer endpoint and the accept loop for new
// connections. Frame-rate and timeout configuration mirror the
// scheduler's so TIMEOUT_FRAMES has a concrete wall-clock meaning.
type Transport struct {
	mu        sync.Mutex
	endpoints map[int]*Endpoint

	listener     net.Listener
	pendingConns []net.Conn

	// FrameRate is the simulation's ticks-per-second, used to convert
	// TimeoutFrames into a wall-clock duration.
	FrameRate float64
	// TimeoutFrames is the scheduler's TIMEOUT_FRAMES value.
	TimeoutFrames uint32

	lastHeartbeat time.Time
}

// TakePendingConns returns and clears the connections accepted since the
// last call, for the session layer to HELLO/WELCOME-handshake and turn
// into registered Endpoints.
func (t *Transport) TakePendingConns() []net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pendingConns
	t.pendingConns = nil
	return out
}

// New creates a Transport. listener may be nil for a pure client that
// never accepts inbound connections.
func New(listener net.Listener, frameRate float64, timeoutFrames uint32) *Transport {
	return &Transport{
		endpoints:     make(map[int]*Endpoint),
		listener:      listener,
		FrameRate:     frameRate,
		TimeoutFrames: timeoutFrames,
	}
}

// AddEndpoint registers an already-connected peer.
func (t *Transport) AddEndpoint(e *Endpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endpoints[e.PeerID] = e
}

// RemoveEndpoint closes and forgets a peer's channels.
func (t *Transport) RemoveEndpoint(peerID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.endpoints[peerID]; ok {
		_ = e.Close()
		delete(t.endpoints, peerID)
	}
}

// Broadcast sends pkt to every connected peer over its reliable channel.
func (t *Transport) Broadcast(pkt protocol.Packet) {
	t.mu.Lock()
	endpoints := make([]*Endpoint, 0, len(t.endpoints))
	for _, e := range t.endpoints {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()

	for _, e := range endpoints {
		if err := e.SendReliable(pkt); err != nil {
			log.Warn("broadcast send failed", log.Peer(e.PeerID), log.Err(err))
		}
	}
}

// timeoutDuration converts TIMEOUT_FRAMES into wall-clock time at the
// configured frame rate (§4.G).
func (t *Transport) timeoutDuration() time.Duration {
	if t.FrameRate <= 0 {
		return 0
	}
	seconds := float64(t.TimeoutFrames) / t.FrameRate
	return time.Duration(seconds * float64(time.Second))
}

// Poll is the per-tick transport operation (§4.G): it accepts new
// connections, drains every peer's reliable channel concurrently, sends
// a heartbeat if due, and detects timed-out peers.
func (t *Transport) Poll() (PollResult, error) {
	t.acceptPending()

	t.mu.Lock()
	endpoints := make([]*Endpoint, 0, len(t.endpoints))
	for _, e := range t.endpoints {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()

	messages := make([][]ReceivedPacket, len(endpoints))
	pollErrs := make([]error, len(endpoints))

	var g errgroup.Group
	for i, e := range endpoints {
		i, e := i, e
		g.Go(func() error {
			packets, err := e.PollReliable()
			for _, p := range packets {
				messages[i] = append(messages[i], ReceivedPacket{PeerID: e.PeerID, Packet: p})
			}
			pollErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PollResult{}, err
	}

	var result PollResult
	now := time.Now()
	timeout := t.timeoutDuration()

	for i, e := range endpoints {
		result.Messages = append(result.Messages, messages[i]...)

		if pollErrs[i] != nil {
			log.ProtocolViolation(e.PeerID, pollErrs[i].Error())
			result.Events = append(result.Events, PeerEvent{PeerID: e.PeerID, Reason: ReasonProtocol})
			t.RemoveEndpoint(e.PeerID)
			continue
		}
		if timeout > 0 && e.IdleFor(now) > timeout {
			result.Events = append(result.Events, PeerEvent{PeerID: e.PeerID, Reason: ReasonTimeout})
			t.RemoveEndpoint(e.PeerID)
		}
	}

	t.maybeSendHeartbeat(now, endpoints)
	return result, nil
}

func (t *Transport) maybeSendHeartbeat(now time.Time, endpoints []*Endpoint) {
	if !t.lastHeartbeat.IsZero() && now.Sub(t.lastHeartbeat) < heartbeatInterval {
		return
	}
	t.lastHeartbeat = now
	for _, e := range endpoints {
		if err := e.SendReliable(protocol.Packet{Kind: protocol.KindPing}); err != nil {
			log.Warn("heartbeat send failed", log.Peer(e.PeerID), log.Err(err))
		}
	}
}

// acceptPending accepts any connection waiting on the listener without
// blocking. The new endpoint is not registered here: HELLO/WELCOME
// handshaking and peer id assignment are session-layer concerns (§6).
func (t *Transport) acceptPending() {
	if t.listener == nil {
		return
	}
	type deadliner interface {
		SetDeadline(time.Time) error
	}
	if d, ok := t.listener.(deadliner); ok {
		_ = d.SetDeadline(time.Now().Add(readDeadline))
	}
	conn, err := t.listener.Accept()
	if err != nil {
		return
	}
	log.Info("accepted connection", log.With("remote", conn.RemoteAddr().String()))
	t.mu.Lock()
	t.pendingConns = append(t.pendingConns, conn)
	t.mu.Unlock()
}
