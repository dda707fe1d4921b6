package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// ClientConfig configures a SCPI socket client.
type ClientConfig struct {
	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config

	// MaxLineSize is the maximum response size (default: 64KB).
	MaxLineSize int

	// ConnectTimeout is the connection timeout (default: 10s).
	ConnectTimeout time.Duration

	// QueryTimeout bounds each Query when the context has no deadline
	// (default: 5s).
	QueryTimeout time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// Client is a controller connection to an instrument.
type Client struct {
	config ClientConfig
	conn   net.Conn
	lines  *LineConn

	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// Dial connects to the instrument at address. A missing port defaults to
// DefaultPort.
func Dial(ctx context.Context, address string, config ClientConfig) (*Client, error) {
	if config.MaxLineSize == 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 5 * time.Second
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, fmt.Sprint(DefaultPort))
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if config.TLSConfig != nil {
		tlsConn := tls.Client(conn, config.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	lines := NewLineConnWithMaxSize(conn, config.MaxLineSize)
	if config.Logger != nil {
		lines.SetLogger(config.Logger, conn.LocalAddr().String())
	}

	return &Client{
		config:  config,
		conn:    conn,
		lines:   lines,
		closeCh: make(chan struct{}),
	}, nil
}

// LocalAddr returns the local network address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send writes a program message that produces no response.
func (c *Client) Send(ctx context.Context, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(ctx, line)
}

// Query writes a program message and waits for its response line.
func (c *Client) Query(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.QueryTimeout)
		defer cancel()
	}

	if err := c.send(ctx, line); err != nil {
		return "", err
	}

	deadline, _ := ctx.Deadline()
	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})

	resp, err := c.lines.ReadLine()
	if err != nil {
		return "", fmt.Errorf("reading response to %q: %w", line, err)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, line string) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.lines.WriteLine(line)
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
