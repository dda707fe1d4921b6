package transport

import (
	"context"
	"errors"
	"net"

	"github.com/scpi-protocol/scpi-go/pkg/inspect"
)

// Connection errors.
var (
	ErrConnectionClosed   = errors.New("connection closed")
	ErrTooManyConnections = errors.New("connection limit reached")
)

// ServerConnection represents a server-side connection to a controller.
// Implemented by ServerConn.
type ServerConnection interface {
	// RemoteAddr returns the remote network address of the controller.
	RemoteAddr() net.Addr

	// ConnID returns the unique connection identifier.
	ConnID() string

	// Send writes a response message.
	Send(msg string) error

	// Close closes the connection.
	Close() error
}

// ClientConnection represents a controller connection to an instrument.
// Implemented by Client.
type ClientConnection interface {
	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// Send writes a program message without waiting for a response.
	Send(ctx context.Context, line string) error

	// Query writes a program message and returns the response line.
	Query(ctx context.Context, line string) (string, error)

	// Close closes the connection.
	Close() error
}

// TransportServer represents a SCPI socket server.
// Implemented by Server.
type TransportServer interface {
	// Start begins accepting connections.
	Start(ctx context.Context) error

	// Stop gracefully stops the server.
	Stop() error

	// Addr returns the server's listen address.
	Addr() net.Addr

	// ConnectionCount returns the number of active connections.
	ConnectionCount() int
}

// LineReadWriter provides newline-terminated message I/O.
// Implemented by LineConn.
type LineReadWriter interface {
	// ReadLine reads one message without its terminator.
	ReadLine() (string, error)

	// WriteLine writes one message followed by the terminator.
	WriteLine(msg string) error
}

// Compile-time interface satisfaction checks.
var (
	_ ServerConnection = (*ServerConn)(nil)
	_ ClientConnection = (*Client)(nil)
	_ TransportServer  = (*Server)(nil)
	_ LineReadWriter   = (*LineConn)(nil)
	_ inspect.Querier  = (*Client)(nil)
)
