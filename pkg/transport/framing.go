package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// Framing constants.
const (
	// Terminator ends every program and response message.
	Terminator = '\n'

	// DefaultMaxLineSize is the default maximum line size (64 KB).
	DefaultMaxLineSize = 65536
)

// Framing errors.
var (
	// ErrLineTooLong indicates a line exceeds the maximum size.
	ErrLineTooLong = errors.New("line too long")

	// ErrLineTruncated indicates the stream ended inside a line.
	ErrLineTruncated = errors.New("line truncated")

	// ErrEmbeddedTerminator indicates a message to be written contains a
	// line terminator.
	ErrEmbeddedTerminator = errors.New("message contains line terminator")
)

// LineWriter writes newline-terminated messages to an underlying writer.
type LineWriter struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewLineWriter creates a new line writer.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (lw *LineWriter) SetLogger(logger log.Logger, connID string) {
	lw.logger = logger
	lw.connID = connID
}

// WriteLine writes msg followed by the terminator.
// Thread-safe: can be called from multiple goroutines.
func (lw *LineWriter) WriteLine(msg string) error {
	if strings.IndexByte(msg, Terminator) >= 0 {
		return ErrEmbeddedTerminator
	}

	lw.mu.Lock()
	defer lw.mu.Unlock()

	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, Terminator)
	if _, err := lw.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}

	if lw.logger != nil {
		lw.logger.Log(log.NewLineEvent(lw.connID, log.DirectionOut, msg))
	}
	return nil
}

// LineReader reads newline-terminated messages from an underlying reader.
type LineReader struct {
	r           *bufio.Reader
	maxLineSize int

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewLineReader creates a new line reader.
func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderWithMaxSize(r, DefaultMaxLineSize)
}

// NewLineReaderWithMaxSize creates a line reader with a custom max size.
func NewLineReaderWithMaxSize(r io.Reader, maxSize int) *LineReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxLineSize
	}
	return &LineReader{
		r:           bufio.NewReaderSize(r, min(maxSize, 4096)),
		maxLineSize: maxSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (lr *LineReader) SetLogger(logger log.Logger, connID string) {
	lr.logger = logger
	lr.connID = connID
}

// ReadLine reads one line and returns it without its terminator (a
// preceding carriage return is dropped too). Lines longer than the
// maximum size are discarded up to their terminator and reported with
// ErrLineTooLong, so the stream stays usable.
func (lr *LineReader) ReadLine() (string, error) {
	var sb strings.Builder
	tooLong := false

	for {
		chunk, err := lr.r.ReadSlice(Terminator)
		if !tooLong {
			if sb.Len()+len(chunk) > lr.maxLineSize+1 {
				tooLong = true
				sb.Reset()
			} else {
				sb.Write(chunk)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return "", fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, lr.maxLineSize)
			}
			line := strings.TrimSuffix(strings.TrimSuffix(sb.String(), "\n"), "\r")
			if lr.logger != nil {
				lr.logger.Log(log.NewLineEvent(lr.connID, log.DirectionIn, line))
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if sb.Len() > 0 || tooLong {
				return "", ErrLineTruncated
			}
			return "", io.EOF
		default:
			return "", fmt.Errorf("failed to read line: %w", err)
		}
	}
}

// LineConn combines line reading and writing.
type LineConn struct {
	*LineReader
	*LineWriter
}

// NewLineConn creates a line framer for bidirectional communication.
func NewLineConn(rw io.ReadWriter) *LineConn {
	return NewLineConnWithMaxSize(rw, DefaultMaxLineSize)
}

// NewLineConnWithMaxSize creates a line framer with a custom max line size.
func NewLineConnWithMaxSize(rw io.ReadWriter, maxSize int) *LineConn {
	return &LineConn{
		LineReader: NewLineReaderWithMaxSize(rw, maxSize),
		LineWriter: NewLineWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (c *LineConn) SetLogger(logger log.Logger, connID string) {
	c.LineReader.SetLogger(logger, connID)
	c.LineWriter.SetLogger(logger, connID)
}
