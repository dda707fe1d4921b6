package model

import (
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Mode is the set of invocation modes a leaf supports.
type Mode uint8

const (
	// ModeEvent is the command (action) form, without a query marker.
	ModeEvent Mode = 1 << 0

	// ModeQuery is the query form, with a trailing '?'.
	ModeQuery Mode = 1 << 1

	// ModeBoth supports both forms.
	ModeBoth = ModeEvent | ModeQuery
)

// Supports reports whether m allows the query (true) or event (false) form.
func (m Mode) Supports(query bool) bool {
	if query {
		return m&ModeQuery != 0
	}
	return m&ModeEvent != 0
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeEvent:
		return "event"
	case ModeQuery:
		return "query"
	case ModeBoth:
		return "event|query"
	default:
		return "none"
	}
}

// EventHandler services the command form of a leaf.
type EventHandler[D any] interface {
	Event(dev D, ctx *Context, params *wire.Parameters) error
}

// QueryHandler services the query form of a leaf. Values written to resp
// are emitted only if the handler returns nil.
type QueryHandler[D any] interface {
	Query(dev D, ctx *Context, params *wire.Parameters, resp *wire.Response) error
}

// ModeDeclarer lets a handler that structurally implements both
// interfaces declare that only some modes are live.
type ModeDeclarer interface {
	Modes() Mode
}

// EventFunc adapts a function to EventHandler.
type EventFunc[D any] func(dev D, ctx *Context, params *wire.Parameters) error

// Event calls f.
func (f EventFunc[D]) Event(dev D, ctx *Context, params *wire.Parameters) error {
	return f(dev, ctx, params)
}

// QueryFunc adapts a function to QueryHandler.
type QueryFunc[D any] func(dev D, ctx *Context, params *wire.Parameters, resp *wire.Response) error

// Query calls f.
func (f QueryFunc[D]) Query(dev D, ctx *Context, params *wire.Parameters, resp *wire.Response) error {
	return f(dev, ctx, params, resp)
}

// Handlers pairs an optional event function with an optional query
// function. Nil functions are reported as unsupported modes.
type Handlers[D any] struct {
	OnEvent EventFunc[D]
	OnQuery QueryFunc[D]
}

// Event calls OnEvent.
func (h Handlers[D]) Event(dev D, ctx *Context, params *wire.Parameters) error {
	return h.OnEvent(dev, ctx, params)
}

// Query calls OnQuery.
func (h Handlers[D]) Query(dev D, ctx *Context, params *wire.Parameters, resp *wire.Response) error {
	return h.OnQuery(dev, ctx, params, resp)
}

// Modes reports which functions are set.
func (h Handlers[D]) Modes() Mode {
	var m Mode
	if h.OnEvent != nil {
		m |= ModeEvent
	}
	if h.OnQuery != nil {
		m |= ModeQuery
	}
	return m
}

// binding is the resolved handler set of one leaf.
type binding[D any] struct {
	event EventHandler[D]
	query QueryHandler[D]
	modes Mode
}

// bind inspects a handler once and records its supported modes.
func bind[D any](handler any) (binding[D], error) {
	var b binding[D]
	if handler == nil {
		return b, ErrNoHandler
	}
	if h, ok := handler.(EventHandler[D]); ok {
		b.event = h
		b.modes |= ModeEvent
	}
	if h, ok := handler.(QueryHandler[D]); ok {
		b.query = h
		b.modes |= ModeQuery
	}
	if d, ok := handler.(ModeDeclarer); ok {
		b.modes &= d.Modes()
	}
	if b.modes == 0 {
		return b, ErrNoHandlerMode
	}
	return b, nil
}
