package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every call for assertion instead of writing
// anywhere.
type recordingSink struct {
	lines []recordedLine
}

type recordedLine struct {
	level string
	msg   string
	attrs []Attr
}

func (r *recordingSink) Debug(msg string, attrs ...Attr) {
	r.lines = append(r.lines, recordedLine{"debug", msg, attrs})
}
func (r *recordingSink) Info(msg string, attrs ...Attr) {
	r.lines = append(r.lines, recordedLine{"info", msg, attrs})
}
func (r *recordingSink) Warn(msg string, attrs ...Attr) {
	r.lines = append(r.lines, recordedLine{"warn", msg, attrs})
}
func (r *recordingSink) Error(msg string, attrs ...Attr) {
	r.lines = append(r.lines, recordedLine{"error", msg, attrs})
}

func withSink(t *testing.T, s Sink) {
	t.Helper()
	original := CurrentSink()
	SetSink(s)
	t.Cleanup(func() { SetSink(original) })
}

func TestSetSinkAndDiscardFallback(t *testing.T) {
	original := CurrentSink()
	defer SetSink(original)

	rec := &recordingSink{}
	SetSink(rec)
	assert.Same(t, Sink(rec), CurrentSink())

	SetSink(nil)
	_, isDiscard := CurrentSink().(discardSink)
	assert.True(t, isDiscard, "nil sink must fall back to discard")
}

func TestPackageLevelFunctionsRouteToSink(t *testing.T) {
	rec := &recordingSink{}
	withSink(t, rec)

	Debug("debug line", With("key", "value"))
	Info("info line", With("count", 42))
	Warn("warn line")
	Error("error line", Reason("boom"))

	require.Len(t, rec.lines, 4)

	assert.Equal(t, "debug", rec.lines[0].level)
	assert.Equal(t, "debug line", rec.lines[0].msg)
	assert.Equal(t, "key", rec.lines[0].attrs[0].Key)
	assert.Equal(t, "value", rec.lines[0].attrs[0].Value)

	assert.Equal(t, "info", rec.lines[1].level)
	assert.Equal(t, 42, rec.lines[1].attrs[0].Value)

	assert.Equal(t, "warn", rec.lines[2].level)
	assert.Empty(t, rec.lines[2].attrs)

	assert.Equal(t, "error", rec.lines[3].level)
	assert.Equal(t, "reason", rec.lines[3].attrs[0].Key)
	assert.Equal(t, "boom", rec.lines[3].attrs[0].Value)
}

func TestDomainHelpersEmitFrameAndPeerAttrs(t *testing.T) {
	rec := &recordingSink{}
	withSink(t, rec)

	DesyncDetected(15, 2)
	PeerEvicted(7, "timeout")
	ProtocolViolation(3, "oversized frame")
	HeapExhausted("vehicle")

	require.Len(t, rec.lines, 4)

	desync := rec.lines[0]
	assert.Equal(t, "error", desync.level)
	assert.Equal(t, uint32(15), attrValue(t, desync.attrs, "frame"))
	assert.Equal(t, 2, attrValue(t, desync.attrs, "peer"))
	assert.Equal(t, "crc mismatch", attrValue(t, desync.attrs, "reason"))

	evicted := rec.lines[1]
	assert.Equal(t, "warn", evicted.level)
	assert.Equal(t, 7, attrValue(t, evicted.attrs, "peer"))
	assert.Equal(t, "timeout", attrValue(t, evicted.attrs, "reason"))

	violation := rec.lines[2]
	assert.Equal(t, 3, attrValue(t, violation.attrs, "peer"))
	assert.Equal(t, "oversized frame", attrValue(t, violation.attrs, "reason"))

	exhausted := rec.lines[3]
	assert.Equal(t, "vehicle", attrValue(t, exhausted.attrs, "kind"))
	assert.Equal(t, "capacity reached", attrValue(t, exhausted.attrs, "reason"))
}

func attrValue(t *testing.T, attrs []Attr, key string) any {
	t.Helper()
	for _, a := range attrs {
		if a.Key == key {
			return a.Value
		}
	}
	t.Fatalf("attribute %q not found in %v", key, attrs)
	return nil
}

func TestDiscardSinkNeverPanics(t *testing.T) {
	d := Discard()
	d.Debug("x", With("k", "v"))
	d.Info("x")
	d.Warn("x")
	d.Error("x")
}

func TestAttrConstructors(t *testing.T) {
	assert.Equal(t, Attr{Key: "frame", Value: uint32(9)}, Frame(9))
	assert.Equal(t, Attr{Key: "peer", Value: 4}, Peer(4))
	assert.Equal(t, Attr{Key: "reason", Value: "timeout"}, Reason("timeout"))

	errAttr := Err(errors.New("fail"))
	assert.Equal(t, "error", errAttr.Key)
	assert.EqualError(t, errAttr.Value.(error), "fail")
}

func TestZerologSinkWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	zlog := zerolog.New(&buf).Level(zerolog.DebugLevel)
	sink := NewZerologSink(zlog)

	sink.Debug("debug message", With("str", "value"), With("num", 42))
	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, `"str":"value"`)
	assert.Contains(t, output, `"num":42`)

	buf.Reset()
	sink.Info("info message")
	assert.Contains(t, buf.String(), "info message")

	buf.Reset()
	sink.Warn("warn message")
	assert.Contains(t, buf.String(), "warn message")

	buf.Reset()
	sink.Error("error message")
	assert.Contains(t, buf.String(), "error message")
}

func TestZerologSinkFieldTypeDispatch(t *testing.T) {
	var buf bytes.Buffer
	zlog := zerolog.New(&buf).Level(zerolog.DebugLevel)
	sink := NewZerologSink(zlog)

	sink.Debug("test",
		With("str", "hello"),
		With("int", 42),
		With("int64", int64(100)),
		With("uint32", uint32(50)),
		With("float64", 3.14),
		With("bool", true),
		With("bytes", []byte{0x01, 0x02}),
		Err(errors.New("failed")),
	)

	output := buf.String()
	assert.Contains(t, output, `"str":"hello"`)
	assert.Contains(t, output, `"int":42`)
	assert.Contains(t, output, `"bool":true`)
	assert.Contains(t, output, `"error":"failed"`)
}

func TestConcurrentSetSinkDoesNotRace(t *testing.T) {
	original := CurrentSink()
	defer SetSink(original)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				SetSink(&recordingSink{})
				CurrentSink().Debug("tick")
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
