// Package interactive provides the interactive command-line interface of
// scpi-client.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Conn is a connection to an instrument. connection.Session implements it.
type Conn interface {
	Send(ctx context.Context, line string) error
	Query(ctx context.Context, line string) (string, error)
}

// ExpectsResponse reports whether line contains a query unit and so
// produces a response line. Units that fail to parse count as commands.
func ExpectsResponse(line string) bool {
	for _, raw := range wire.SplitMessage(line) {
		u, err := wire.ParseUnit(raw)
		if err != nil {
			continue
		}
		if u.Query {
			return true
		}
	}
	return false
}

// Controller drives one instrument from the terminal.
type Controller struct {
	conn   Conn
	remote *inspect.RemoteInspector
	out    io.Writer
	rl     *readline.Instance

	// CheckErrors drains the error queue after every program message.
	CheckErrors bool
}

// New creates a controller console for conn. prompt is usually the
// instrument model.
func New(conn Conn, prompt string) (*Controller, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := NewController(conn, rl.Stdout())
	c.rl = rl
	return c, nil
}

// NewController creates a controller writing to out, without a terminal.
// It serves one-shot use and tests.
func NewController(conn Conn, out io.Writer) *Controller {
	return &Controller{
		conn:   conn,
		remote: inspect.NewRemoteInspector(conn),
		out:    out,
	}
}

// Stdout returns a writer that coordinates with the readline prompt. Use
// it for log output.
func (c *Controller) Stdout() io.Writer {
	return c.out
}

// Run reads lines until quit, EOF or ctx is done.
func (c *Controller) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Handle(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Handle runs one input line and reports whether the user asked to quit.
// Console commands start with a dot; everything else goes to the
// instrument.
func (c *Controller) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if !strings.HasPrefix(input, ".") {
		if err := c.Exec(ctx, input); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return false
	}

	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "identify", "id":
		c.cmdIdentify(ctx)
	case "headers":
		c.cmdHeaders(ctx, args)
	case "errors", "e":
		c.cmdErrors(ctx)
	case "check":
		c.CheckErrors = !c.CheckErrors
		fmt.Fprintf(c.out, "Error checking: %v\n", c.CheckErrors)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: .%s (type '.help' for commands)\n", cmd)
	}
	return false
}

// Exec sends one program message and prints its response, if any.
func (c *Controller) Exec(ctx context.Context, line string) error {
	if ExpectsResponse(line) {
		resp, err := c.conn.Query(ctx, line)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, resp)
	} else if err := c.conn.Send(ctx, line); err != nil {
		return err
	}

	if c.CheckErrors {
		_, err := c.PrintErrors(ctx)
		return err
	}
	return nil
}

// PrintErrors drains the error queue and prints each entry. It returns
// the number of entries.
func (c *Controller) PrintErrors(ctx context.Context) (int, error) {
	entries, err := c.remote.Errors(ctx)
	for _, e := range entries {
		fmt.Fprintf(c.out, "! %d,%s\n", e.Code, wire.QuoteString(e.Description))
	}
	return len(entries), err
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.out, `
SCPI Client Commands:
  <line>              - Send a program message, e.g. VOLT 5;VOLT?
  .identify           - Show *IDN?
  .headers [filter]   - List the instrument's headers
  .errors             - Drain and show the error queue
  .check              - Toggle error checking after each message
  .help               - Show this help
  .quit               - Exit`)
}

func (c *Controller) cmdIdentify(ctx context.Context) {
	id, err := c.remote.Identify(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Manufacturer: %s\n", id.Manufacturer)
	fmt.Fprintf(c.out, "Model:        %s\n", id.Model)
	fmt.Fprintf(c.out, "Serial:       %s\n", id.Serial)
	fmt.Fprintf(c.out, "Firmware:     %s\n", id.Firmware)
}

func (c *Controller) cmdHeaders(ctx context.Context, args []string) {
	headers, err := c.remote.Headers(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	filter := ""
	if len(args) > 0 {
		filter = strings.ToUpper(args[0])
	}
	for _, h := range headers {
		if filter == "" || strings.Contains(strings.ToUpper(h), filter) {
			fmt.Fprintln(c.out, h)
		}
	}
}

func (c *Controller) cmdErrors(ctx context.Context) {
	n, err := c.PrintErrors(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if n == 0 {
		fmt.Fprintln(c.out, "No errors")
	}
}
