// Package transport implements the per-peer network channels (§4.G):
// a reliable, length-framed stream carrying lobby and game-sync packets,
// and an optional datagram channel for heartbeats and (if enabled)
// duplicated FRAME_DATA.
package transport

import (
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/protocol"
)

// MaxFrameSize is the cap on a single reliable-channel frame (§4.G:
// "suggested cap: 4096"). A length prefix that exceeds this is a
// protocol violation and closes the connection.
const MaxFrameSize = 4096

// lengthPrefixSize is the outer reliable-channel frame's length field.
// §9 Open Question: the source mixes big- and little-endian length
// prefixes; this implementation picks big-endian and documents it here,
// distinct from the little-endian payload contents inside each frame.
const lengthPrefixSize = 4

// ErrOversizedFrame is a protocol violation: the declared frame length
// exceeds MaxFrameSize.
var ErrOversizedFrame = errors.New("transport: oversized frame")

// readDeadline bounds each non-blocking poll of the underlying socket.
const readDeadline = time.Millisecond

// Endpoint is one peer's pair of channels plus the bookkeeping the
// transport layer owns exclusively (§5): inbound framing buffer and
// last-received timestamp.
type Endpoint struct {
	PeerID int

	reliable net.Conn
	datagram net.PacketConn
	datagramPeerAddr net.Addr

	// DuplicateFrameData, when true, also sends FRAME_DATA packets over
	// the datagram channel for latency (§9 Open Question: off by
	// default — the reliable channel alone is sufficient for
	// correctness).
	DuplicateFrameData bool

	readBuf      []byte
	lastReceived time.Time
}

// NewEndpoint wraps an already-connected reliable-channel socket. The
// datagram channel is optional; pass a nil conn/addr to disable it.
func NewEndpoint(peerID int, reliable net.Conn, datagram net.PacketConn, datagramPeerAddr net.Addr) *Endpoint {
	return &Endpoint{
		PeerID:           peerID,
		reliable:         reliable,
		datagram:         datagram,
		datagramPeerAddr: datagramPeerAddr,
		lastReceived:     time.Now(),
	}
}

// SendReliable frames pkt with the outer big-endian length prefix and
// writes it to the reliable channel.
func (e *Endpoint) SendReliable(pkt protocol.Packet) error {
	payload, err := protocol.Encode(pkt)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return ErrOversizedFrame
	}
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)
	_, err = e.reliable.Write(frame)
	if err == nil && e.DuplicateFrameData && pkt.Kind == protocol.KindFrameData {
		if dErr := e.SendDatagram(pkt); dErr != nil {
			log.Warn("duplicate frame data datagram failed", log.Peer(e.PeerID), log.Err(dErr))
		}
	}
	return err
}

// SendDatagram writes pkt to the datagram channel, if one is configured.
// Delivery is at-most-once and unordered (§4.G); callers must not rely
// on it for correctness.
func (e *Endpoint) SendDatagram(pkt protocol.Packet) error {
	if e.datagram == nil {
		return nil
	}
	payload, err := protocol.Encode(pkt)
	if err != nil {
		return err
	}
	_, err = e.datagram.WriteTo(payload, e.datagramPeerAddr)
	return err
}

// PollReliable drains any bytes currently available on the reliable
// socket without blocking, buffers partial frames across calls, and
// returns every complete packet decoded this call.
func (e *Endpoint) PollReliable() ([]protocol.Packet, error) {
	if err := e.drainSocket(); err != nil {
		return nil, err
	}
	return e.decodeBufferedFrames()
}

func (e *Endpoint) drainSocket() error {
	buf := make([]byte, MaxFrameSize)
	for {
		if err := e.reliable.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return err
		}
		n, err := e.reliable.Read(buf)
		if n > 0 {
			e.readBuf = append(e.readBuf, buf[:n]...)
			e.lastReceived = time.Now()
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (e *Endpoint) decodeBufferedFrames() ([]protocol.Packet, error) {
	var packets []protocol.Packet
	for {
		if len(e.readBuf) < lengthPrefixSize {
			return packets, nil
		}
		length := binary.BigEndian.Uint32(e.readBuf[:lengthPrefixSize])
		if length > MaxFrameSize {
			return packets, ErrOversizedFrame
		}
		total := lengthPrefixSize + int(length)
		if len(e.readBuf) < total {
			return packets, nil
		}
		pkt, err := protocol.Decode(e.readBuf[lengthPrefixSize:total])
		e.readBuf = e.readBuf[total:]
		if err != nil {
			log.Warn("dropping unreadable packet", log.Peer(e.PeerID), log.Err(err))
			if !errors.Is(err, protocol.ErrUnknownKind) {
				return packets, err
			}
			continue
		}
		packets = append(packets, pkt)
	}
}

// IdleFor reports how long it has been since anything was received from
// this peer.
func (e *Endpoint) IdleFor(now time.Time) time.Duration {
	return now.Sub(e.lastReceived)
}

// Close closes the reliable-channel socket. The datagram conn passed to
// NewEndpoint is left open.
func (e *Endpoint) Close() error {
	return e.reliable.Close()
}
