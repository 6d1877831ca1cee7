package engine

// Sink receives emitted items one at a time, in final order.
//
// seq is the 1-based position of item in the order. Returning an error aborts
// the run; items already accepted stay delivered.
type Sink interface {
	Emit(item string, seq int64) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(item string, seq int64) error

// Emit calls f(item, seq).
func (f SinkFunc) Emit(item string, seq int64) error {
	return f(item, seq)
}

// Discard is a Sink that accepts and drops every emission.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Emit(string, int64) error { return nil }

// MultiSink fans each emission out to every sink in order, stopping at the
// first error.
func MultiSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return multiSink(filtered)
}

type multiSink []Sink

func (m multiSink) Emit(item string, seq int64) error {
	for _, s := range m {
		if err := s.Emit(item, seq); err != nil {
			return err
		}
	}
	return nil
}
