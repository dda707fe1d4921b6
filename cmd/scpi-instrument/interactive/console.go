// Package interactive provides the interactive console of scpi-instrument.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// ConnectionCounter reports the number of connected controllers.
// transport.Server implements it.
type ConnectionCounter interface {
	ConnectionCount() int
}

// Console is a front panel for a served instrument: it inspects the
// command tree and executes program messages locally, sharing the device
// with remote controllers.
type Console struct {
	exec      interaction.Executor
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	local     *inspect.RemoteInspector
	conns     ConnectionCounter
	out       io.Writer
	rl        *readline.Instance
}

// New creates a console on the terminal.
func New(exec interaction.Executor, root *model.Node, conns ConnectionCounter) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "scpi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(exec, root, conns, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(exec interaction.Executor, root *model.Node, conns ConnectionCounter, out io.Writer) *Console {
	return &Console{
		exec:      exec,
		inspector: inspect.NewInspector(root),
		formatter: inspect.NewFormatter(),
		local:     inspect.NewRemoteInspector(executorQuerier{exec}),
		conns:     conns,
		out:       out,
	}
}

// Stdout returns a writer that coordinates with the readline prompt. Use
// it for log output.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run reads console lines until quit, EOF or ctx is done. cancel is
// called when the user leaves the console.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
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

// Handle runs one console line and reports whether the user asked to
// quit. Lines that are not console commands are sent to the instrument
// as program messages.
func (c *Console) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "tree", "t":
		c.cmdTree(args)
	case "headers":
		c.cmdHeaders()
	case "find", "f":
		c.cmdFind(args)
	case "stats":
		fmt.Fprintln(c.out, c.inspector.Stats())
	case "errors", "e":
		c.cmdErrors(ctx)
	case "identify", "id":
		c.cmdIdentify(ctx)
	case "conns":
		c.cmdConns()
	case "send", "s":
		c.execute(strings.TrimSpace(input[len(parts[0]):]))
	case "quit", "exit", "q":
		return true
	default:
		c.execute(input)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
SCPI Instrument Console:
  Inspection:
    tree [filter]      - Show the command tree (or the branches matching filter)
    headers            - List all headers (SYSTem:HELP:HEADers?)
    find <text>        - Find leaves whose path contains text
    stats              - Summarize the command tree

  Instrument:
    identify           - Show *IDN?
    errors             - Drain and show the error queue
    conns              - Show connected controllers
    send <line>        - Execute a program message
    <line>             - Any other input is executed as well, e.g. VOLT 5;*TRG

  General:
    help               - Show this help
    quit               - Exit`)
}

func (c *Console) cmdTree(args []string) {
	if len(args) == 0 {
		fmt.Fprint(c.out, c.formatter.FormatTree(c.inspector.Root()))
		return
	}
	leaves := c.inspector.Find(args[0])
	if len(leaves) == 0 {
		fmt.Fprintf(c.out, "No commands match %q\n", args[0])
		return
	}
	seen := make(map[*model.Node]bool)
	for _, l := range leaves {
		top := l.Node
		for top.Parent() != nil && top.Parent() != c.inspector.Root() {
			top = top.Parent()
		}
		if seen[top] {
			continue
		}
		seen[top] = true
		fmt.Fprintln(c.out, top.Name())
		fmt.Fprint(c.out, c.formatter.FormatTree(top))
	}
}

func (c *Console) cmdHeaders() {
	for _, h := range c.inspector.Headers() {
		fmt.Fprintln(c.out, h)
	}
}

func (c *Console) cmdFind(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: find <text>")
		fmt.Fprintln(c.out, "  Example: find VOLT")
		return
	}
	fmt.Fprint(c.out, c.formatter.FormatLeafTable(c.inspector.Find(args[0])))
}

func (c *Console) cmdErrors(ctx context.Context) {
	entries, err := c.local.Errors(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No errors")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %d  %s\n", e.Code, e.Description)
	}
}

func (c *Console) cmdIdentify(ctx context.Context) {
	id, err := c.local.Identify(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Manufacturer: %s\n", id.Manufacturer)
	fmt.Fprintf(c.out, "Model:        %s\n", id.Model)
	fmt.Fprintf(c.out, "Serial:       %s\n", id.Serial)
	fmt.Fprintf(c.out, "Firmware:     %s\n", id.Firmware)
}

func (c *Console) cmdConns() {
	if c.conns == nil {
		fmt.Fprintln(c.out, "Not serving")
		return
	}
	fmt.Fprintf(c.out, "Connected controllers: %d\n", c.conns.ConnectionCount())
}

func (c *Console) execute(line string) {
	if line == "" {
		fmt.Fprintln(c.out, "Usage: send <line>")
		return
	}
	res := c.exec.ExecuteFrom("", line)
	if res.HasResponse() {
		fmt.Fprintln(c.out, string(res.Response))
	}
	for _, e := range res.Errors {
		fmt.Fprintf(c.out, "! %s\n", e.Entry())
	}
}

// executorQuerier runs queries on a local executor.
type executorQuerier struct {
	exec interaction.Executor
}

func (q executorQuerier) Query(_ context.Context, line string) (string, error) {
	res := q.exec.ExecuteFrom("", line)
	if res.Err != nil {
		return "", res.Err
	}
	return string(res.Response), nil
}
