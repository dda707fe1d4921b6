package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// DefaultPort is the raw SCPI socket port.
const DefaultPort = 5025

// ServerConfig configures a SCPI socket server.
type ServerConfig struct {
	// Address to listen on (e.g., ":5025" or "127.0.0.1:5025").
	Address string

	// Executor runs received lines. Required.
	Executor interaction.Executor

	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config

	// MaxLineSize is the maximum program message size (default: 64KB).
	MaxLineSize int

	// IdleTimeout closes connections without traffic for this long
	// (0 = never).
	IdleTimeout time.Duration

	// MaxConnections limits concurrent connections (0 = unlimited).
	MaxConnections int

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnResult is called after each line with its dispatch result.
	OnResult func(conn *ServerConn, line string, res *interaction.Result)

	// OnError is called when an error occurs.
	OnError func(conn *ServerConn, err error)
}

// DefaultServerConfig returns a configuration listening on DefaultPort.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:     fmt.Sprintf(":%d", DefaultPort),
		MaxLineSize: DefaultMaxLineSize,
	}
}

// Server accepts controller connections and executes their program
// messages on a shared instrument.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxLineSize == 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}

	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to listen: %w", err)
	}
	if s.config.TLSConfig != nil {
		listener = tls.NewListener(listener, s.config.TLSConfig)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() && s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		if limit := s.config.MaxConnections; limit > 0 && s.ConnectionCount() >= limit {
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("%w: %d, rejected %s", ErrTooManyConnections, limit, conn.RemoteAddr()))
			}
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection processes a single connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()

	lines := NewLineConnWithMaxSize(conn, s.config.MaxLineSize)
	if s.config.Logger != nil {
		lines.SetLogger(s.config.Logger, connID)
	}

	sconn := &ServerConn{
		conn:       conn,
		lines:      lines,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     connID,
	}

	s.logState(sconn, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	s.logState(sconn, "CONNECTED", "DISCONNECTED")

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

func (s *Server) logState(c *ServerConn, oldState, newState string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		LocalRole:    log.RoleInstrument,
		RemoteAddr:   c.remoteAddr.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

// ServerConn represents a controller connection to the server.
type ServerConn struct {
	conn       net.Conn
	lines      *LineConn
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string // Unique connection identifier
	lineCount  atomic.Uint64
}

// RemoteAddr returns the remote address of the controller.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Lines returns the number of program messages executed so far.
func (c *ServerConn) Lines() uint64 {
	return c.lineCount.Load()
}

// Send writes one response message to the controller.
func (c *ServerConn) Send(msg string) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.lines.WriteLine(msg)
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop reads program messages until the connection closes. Each line
// runs to completion before the next is read; its response, if any, is
// written before reading resumes.
func (c *ServerConn) readLoop() {
	cfg := &c.server.config
	for {
		select {
		case <-c.closeCh:
			return
		case <-c.server.ctx.Done():
			return
		default:
		}

		if cfg.IdleTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout))
		}

		line, err := c.lines.ReadLine()
		if errors.Is(err, ErrLineTooLong) {
			c.report(err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.report(err)
			}
			return
		}

		c.lineCount.Add(1)
		res := cfg.Executor.ExecuteFrom(c.connID, line)
		if cfg.OnResult != nil {
			cfg.OnResult(c, line, res)
		}
		if !res.HasResponse() {
			continue
		}
		if err := c.Send(string(res.Response)); err != nil {
			c.report(err)
			if errors.Is(err, ErrEmbeddedTerminator) {
				continue
			}
			return
		}
	}
}

func (c *ServerConn) report(err error) {
	if c.server.config.OnError == nil || !c.server.running.Load() {
		return
	}
	select {
	case <-c.closeCh:
		// Already closing, don't report
	default:
		c.server.config.OnError(c, err)
	}
}
