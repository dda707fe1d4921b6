package interaction

import (
	"sync"
)

// Executor runs program messages. Instrument implements it for transports
// that do not know the device type.
type Executor interface {
	ExecuteFrom(connID, line string) *Result
}

// Instrument owns a device and serializes access to it. Lines from any
// number of connections run one at a time, to completion.
type Instrument[D any] struct {
	mu         sync.Mutex
	dev        D
	dispatcher *Dispatcher[D]
}

// NewInstrument pairs dev with its dispatcher.
func NewInstrument[D any](dev D, dispatcher *Dispatcher[D]) *Instrument[D] {
	return &Instrument[D]{dev: dev, dispatcher: dispatcher}
}

// Dispatcher returns the instrument's dispatcher.
func (in *Instrument[D]) Dispatcher() *Dispatcher[D] {
	return in.dispatcher
}

// Execute runs one program message with exclusive access to the device.
func (in *Instrument[D]) Execute(line string) *Result {
	return in.ExecuteFrom("", line)
}

// ExecuteFrom is Execute with the originating connection recorded.
func (in *Instrument[D]) ExecuteFrom(connID, line string) *Result {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dispatcher.ExecuteFrom(in.dev, connID, line)
}

// Do runs fn with exclusive access to the device, for work that does not
// arrive as a program message (front panel, hardware trigger input).
func (in *Instrument[D]) Do(fn func(dev D)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	fn(in.dev)
}

// Compile-time interface satisfaction check.
var _ Executor = (*Instrument[struct{}])(nil)
