package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID). Empty for
	// lines executed locally, e.g. from a console.
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is an instrument or a controller.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Instrument identifies the instrument (serial number or name).
	Instrument string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Line        *LineEvent        `cbor:"10,keyasint,omitempty"` // Transport layer
	Unit        *UnitEvent        `cbor:"11,keyasint,omitempty"` // Dispatch layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection state
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a program message received by the instrument.
	DirectionIn Direction = 0
	// DirectionOut indicates a response message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the line layer (raw text).
	LayerTransport Layer = 0
	// LayerDispatch is the command-tree dispatch layer (parsed units).
	LayerDispatch Layer = 1
	// LayerService is the application layer (instrument lifecycle).
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerDispatch:
		return "DISPATCH"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a program or response message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is an instrument or a controller.
type Role uint8

const (
	// RoleInstrument indicates this is an instrument.
	RoleInstrument Role = 0
	// RoleController indicates this is a controller.
	RoleController Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleInstrument:
		return "INSTRUMENT"
	case RoleController:
		return "CONTROLLER"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures one raw text line at the transport layer.
type LineEvent struct {
	// Size is the line size in bytes, terminator excluded.
	Size int `cbor:"1,keyasint"`

	// Text is the line content (may be truncated for long lines).
	Text string `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Text was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// UnitEvent captures the dispatch of one command unit.
type UnitEvent struct {
	// Index is the position of the unit within its line.
	Index int `cbor:"1,keyasint"`

	// Header is the header as received, including any query marker.
	Header string `cbor:"2,keyasint"`

	// Path is the long-form path of the resolved leaf (empty if the
	// header did not resolve).
	Path string `cbor:"3,keyasint,omitempty"`

	// Query is set for query units.
	Query bool `cbor:"4,keyasint,omitempty"`

	// Params is the number of parameters given.
	Params int `cbor:"5,keyasint,omitempty"`

	// Code is the SCPI error code for failed units.
	Code *int `cbor:"6,keyasint,omitempty"`

	// Kind is the error classification for failed units.
	Kind string `cbor:"7,keyasint,omitempty"`

	// Response is the unit's response text (queries only).
	Response string `cbor:"8,keyasint,omitempty"`

	// ProcessingTime is the time spent resolving and running the unit.
	// Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// Failed reports whether the unit produced an error.
func (u *UnitEvent) Failed() bool {
	return u.Code != nil
}

// StateChangeEvent captures connection and instrument lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityInstrument indicates an instrument state change
	// (reset, advertising, shutdown).
	StateEntityInstrument StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityInstrument:
		return "INSTRUMENT"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// MaxLineText is the number of bytes of a line kept in a LineEvent.
const MaxLineText = 1024

// NewLineEvent builds a transport event for one line, truncating the text
// to MaxLineText bytes.
func NewLineEvent(connID string, dir Direction, line string) Event {
	le := &LineEvent{Size: len(line), Text: line}
	if len(line) > MaxLineText {
		le.Text = line[:MaxLineText]
		le.Truncated = true
	}
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Line:         le,
	}
}
