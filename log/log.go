// Package log is the structured-logging seam for the lockstep engine.
//
// Every package that reports on game-breaking conditions — a desynced
// peer, an evicted connection, a protocol violation, an exhausted heap —
// goes through here rather than fmt.Println or a package-local logger,
// so a host process can route engine diagnostics into its own logging
// pipeline (or silence them entirely) without the engine importing a
// concrete backend.
//
// The zero value does nothing: until SetSink is called, every call below
// is discarded. Install a backend with SetSink(NewZerologSink(...)) or
// any other Sink implementation.
package log

import "sync/atomic"

// Attr is one structured field attached to a log line. The engine's own
// call sites favor the named constructors below (Frame, Peer, Reason,
// Err) over raw With calls, so that "which frame/peer/reason was this
// about" reads the same way across every package.
type Attr struct {
	Key   string
	Value any
}

// With builds an arbitrary Attr for fields the named constructors don't
// cover (entity kind, byte counts, addresses, and so on).
func With(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Frame tags a log line with the simulation frame it concerns.
func Frame(frame uint32) Attr { return Attr{Key: "frame", Value: frame} }

// Peer tags a log line with the peer id it concerns.
func Peer(id int) Attr { return Attr{Key: "peer", Value: id} }

// Reason tags a log line with a short human-readable cause, matching the
// reason strings surfaced on PeerLost and protocol-violation events.
func Reason(reason string) Attr { return Attr{Key: "reason", Value: reason} }

// Err tags a log line with the underlying error.
func Err(err error) Attr { return Attr{Key: "error", Value: err} }

// Sink receives log lines from the package-level Debug/Info/Warn/Error
// functions. msg is a short static description; attrs carry the
// variable data (frame numbers, peer ids, reasons, errors).
type Sink interface {
	Debug(msg string, attrs ...Attr)
	Info(msg string, attrs ...Attr)
	Warn(msg string, attrs ...Attr)
	Error(msg string, attrs ...Attr)
}

// sinkBox lets a plain interface value live inside a sync/atomic.Value,
// which requires every stored value to share one concrete type.
type sinkBox struct{ sink Sink }

var active atomic.Value

func init() {
	active.Store(sinkBox{discardSink{}})
}

// SetSink installs sink as the destination for every subsequent
// Debug/Info/Warn/Error call. Passing nil reverts to discarding output.
// Safe to call from any goroutine at any time.
func SetSink(sink Sink) {
	if sink == nil {
		sink = discardSink{}
	}
	active.Store(sinkBox{sink})
}

// CurrentSink returns the sink presently receiving log output.
func CurrentSink() Sink {
	return active.Load().(sinkBox).sink
}

// Debug reports a diagnostic line useful only while developing the
// engine itself (e.g. an unhandled lobby packet kind).
func Debug(msg string, attrs ...Attr) { CurrentSink().Debug(msg, attrs...) }

// Info reports routine lifecycle events (a peer connecting, a session
// starting).
func Info(msg string, attrs ...Attr) { CurrentSink().Info(msg, attrs...) }

// Warn reports a recoverable fault: a dropped duplicate frame report, a
// failed heartbeat send, a peer given up on.
func Warn(msg string, attrs ...Attr) { CurrentSink().Warn(msg, attrs...) }

// Error reports a condition that leaves the session authoritatively
// broken, chiefly a state-hash mismatch.
func Error(msg string, attrs ...Attr) { CurrentSink().Error(msg, attrs...) }

// DesyncDetected logs the one event the whole core exists to avoid: two
// peers folding different state hashes for the same sync frame.
func DesyncDetected(frame uint32, mismatchedPeer int) {
	Error("state hash mismatch", Frame(frame), Peer(mismatchedPeer), Reason("crc mismatch"))
}

// PeerEvicted logs a peer being dropped from the session, whether for a
// protocol violation or a timeout.
func PeerEvicted(peer int, reason string) {
	Warn("peer evicted", Peer(peer), Reason(reason))
}

// ProtocolViolation logs a malformed or oversized packet from peer that
// forced the connection closed.
func ProtocolViolation(peer int, reason string) {
	Warn("protocol violation", Peer(peer), Reason(reason))
}

// HeapExhausted logs an allocation request that a full object heap
// could not satisfy.
func HeapExhausted(kind string) {
	Warn("heap exhausted", With("kind", kind), Reason("capacity reached"))
}
