package log

import "github.com/rs/zerolog"

// zerologSink implements Sink over a zerolog.Logger, the structured
// logger the rest of the module's ambient stack assumes.
type zerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink wraps logger as a Sink. Typical wiring in a host
// process:
//
//	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	log.SetSink(log.NewZerologSink(zlog))
func NewZerologSink(logger zerolog.Logger) Sink {
	return zerologSink{logger: logger}
}

func (s zerologSink) Debug(msg string, attrs ...Attr) { s.emit(s.logger.Debug(), msg, attrs) }
func (s zerologSink) Info(msg string, attrs ...Attr)  { s.emit(s.logger.Info(), msg, attrs) }
func (s zerologSink) Warn(msg string, attrs ...Attr)  { s.emit(s.logger.Warn(), msg, attrs) }
func (s zerologSink) Error(msg string, attrs ...Attr) { s.emit(s.logger.Error(), msg, attrs) }

func (zerologSink) emit(ev *zerolog.Event, msg string, attrs []Attr) {
	for _, a := range attrs {
		ev = appendAttr(ev, a)
	}
	ev.Msg(msg)
}

// appendAttr dispatches on the dynamic type of a.Value so callers can
// pass plain Go values (uint32 frame numbers, int peer ids, error
// values) without pre-converting them to zerolog's typed setters.
func appendAttr(ev *zerolog.Event, a Attr) *zerolog.Event {
	switch v := a.Value.(type) {
	case string:
		return ev.Str(a.Key, v)
	case int:
		return ev.Int(a.Key, v)
	case int8:
		return ev.Int8(a.Key, v)
	case int16:
		return ev.Int16(a.Key, v)
	case int32:
		return ev.Int32(a.Key, v)
	case int64:
		return ev.Int64(a.Key, v)
	case uint:
		return ev.Uint(a.Key, v)
	case uint8:
		return ev.Uint8(a.Key, v)
	case uint16:
		return ev.Uint16(a.Key, v)
	case uint32:
		return ev.Uint32(a.Key, v)
	case uint64:
		return ev.Uint64(a.Key, v)
	case float32:
		return ev.Float32(a.Key, v)
	case float64:
		return ev.Float64(a.Key, v)
	case bool:
		return ev.Bool(a.Key, v)
	case error:
		return ev.AnErr(a.Key, v)
	case []byte:
		return ev.Bytes(a.Key, v)
	default:
		return ev.Interface(a.Key, v)
	}
}
