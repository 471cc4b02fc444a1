package sse

// Sink receives the outcome of a decoded stream.
// OnDelta is called once per content delta, in stream order. Exactly one of
// OnDone or OnError terminates the stream.
type Sink interface {
	OnDelta(text string)
	OnDone()
	OnError(err error)
}

// SinkFuncs adapts plain functions to a Sink. Nil functions are ignored.
type SinkFuncs struct {
	Delta func(text string)
	Done  func()
	Error func(err error)
}

func (f SinkFuncs) OnDelta(text string) {
	if f.Delta != nil {
		f.Delta(text)
	}
}

func (f SinkFuncs) OnDone() {
	if f.Done != nil {
		f.Done()
	}
}

func (f SinkFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
