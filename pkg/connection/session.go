package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Session errors.
var (
	ErrSessionClosed = errors.New("session closed")
	ErrUnreachable   = errors.New("instrument unreachable")
)

// State represents the connection state of a Session.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one controller connection. transport.Client implements it.
type Conn interface {
	Send(ctx context.Context, line string) error
	Query(ctx context.Context, line string) (string, error)
	Close() error
}

// DialFunc opens a new connection to the instrument.
type DialFunc func(ctx context.Context) (Conn, error)

// Config configures a Session.
type Config struct {
	Backoff BackoffConfig

	// MaxAttempts bounds the dials made for one call (default: 3).
	MaxAttempts int

	// OnStateChange is called on every transition, with the session
	// locked. It must not call back into the Session.
	OnStateChange func(from, to State)
}

// Session is a controller connection that redials after failures.
// It is safe for concurrent use; exchanges are serialized.
type Session struct {
	mu sync.Mutex

	dial    DialFunc
	config  Config
	backoff *Backoff

	conn  Conn
	state State
	dials int
}

// NewSession returns a disconnected session. The first Send or Query
// dials.
func NewSession(dial DialFunc, config Config) *Session {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	return &Session{
		dial:    dial,
		config:  config,
		backoff: NewBackoffWithConfig(config.Backoff),
	}
}

// Connect dials unless the session is already connected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.connLocked(ctx)
	return err
}

// Send writes a program message that produces no response.
func (s *Session) Send(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connLocked(ctx)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, line); err != nil {
		s.dropLocked()
		return err
	}
	return nil
}

// Query writes a program message and returns its response line. A failed
// query drops the connection, so a late response can never be read as the
// answer to a later query.
func (s *Session) Query(ctx context.Context, line string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connLocked(ctx)
	if err != nil {
		return "", err
	}
	resp, err := conn.Query(ctx, line)
	if err != nil {
		s.dropLocked()
		return "", err
	}
	return resp, nil
}

// Close closes the current connection. Later calls fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.setStateLocked(StateClosed)
	return err
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dials returns the number of successful dials, the first included.
func (s *Session) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *Session) connLocked(ctx context.Context) (Conn, error) {
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.conn != nil {
		return s.conn, nil
	}

	s.setStateLocked(StateConnecting)
	var lastErr error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, s.backoff.Next()); err != nil {
				s.setStateLocked(StateDisconnected)
				return nil, err
			}
		}
		conn, err := s.dial(ctx)
		if err == nil {
			s.conn = conn
			s.dials++
			s.backoff.Reset()
			s.setStateLocked(StateConnected)
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	s.setStateLocked(StateDisconnected)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUnreachable, s.config.MaxAttempts, lastErr)
}

func (s *Session) dropLocked() {
	if s.conn == nil {
		return
	}
	s.conn.Close()
	s.conn = nil
	s.setStateLocked(StateDisconnected)
}

func (s *Session) setStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(from, to)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
