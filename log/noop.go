package log

// discardSink is the Sink installed until a host process calls SetSink;
// it drops every line.
type discardSink struct{}

func (discardSink) Debug(string, ...Attr) {}
func (discardSink) Info(string, ...Attr)  {}
func (discardSink) Warn(string, ...Attr)  {}
func (discardSink) Error(string, ...Attr) {}

// Discard returns a Sink that drops all output, for callers that want
// to explicitly silence logging rather than rely on the zero value.
func Discard() Sink { return discardSink{} }
