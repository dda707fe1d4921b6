package interaction

import (
	"strings"
	"sync"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// ErrorSink receives every unit failure, in order. The IEEE488.2 status
// model implements it with its error/event queue.
type ErrorSink interface {
	Push(err *wire.Error)
}

// OutputSink is implemented by error sinks that also track the IEEE488.2
// Message Available bit. The dispatcher holds MAV set while earlier units
// of the line have queued response text, and clears it once the line's
// response is handed back to the caller.
type OutputSink interface {
	SetMessageAvailable(v bool)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(err *wire.Error)

// Push calls f.
func (f ErrorSinkFunc) Push(err *wire.Error) { f(err) }

// UnitResult is the outcome of one command unit.
type UnitResult struct {
	// Unit is the parsed unit. Header fields may be partial if parsing failed.
	Unit *wire.Unit

	// Leaf is the resolved leaf, nil if the header did not resolve.
	Leaf *model.Node

	// Response is the unit's response text (successful queries only).
	Response []byte

	// Err is the unit failure, if any.
	Err *wire.Error

	// Elapsed is the time spent resolving and running the unit.
	Elapsed time.Duration
}

// Result is the outcome of one program message.
type Result struct {
	// Response holds the responses of the successful query units, joined
	// with the response separator, without a line terminator.
	Response []byte

	// Units holds one entry per command unit, in order.
	Units []UnitResult

	// Errors lists every unit failure in order.
	Errors []*wire.Error

	// Err is the worst failure by severity, or nil.
	Err *wire.Error
}

// HasResponse reports whether the line produced any response text.
func (r *Result) HasResponse() bool {
	return len(r.Response) > 0
}

// Dispatcher executes program messages against devices of type D. It is
// stateless between lines and safe for concurrent use; exclusive device
// access is the caller's concern (see Instrument).
type Dispatcher[D any] struct {
	tree *model.Tree[D]

	mu         sync.RWMutex
	sink       ErrorSink
	logger     log.Logger
	instrument string
}

// NewDispatcher creates a dispatcher for a compiled tree.
func NewDispatcher[D any](tree *model.Tree[D]) *Dispatcher[D] {
	return &Dispatcher[D]{
		tree:   tree,
		logger: log.NoopLogger{},
	}
}

// Tree returns the dispatcher's command tree.
func (d *Dispatcher[D]) Tree() *model.Tree[D] {
	return d.tree
}

// SetErrorSink sets the receiver of unit failures. Nil disables it.
func (d *Dispatcher[D]) SetErrorSink(sink ErrorSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = sink
}

// SetLogger sets the protocol logger for unit events.
func (d *Dispatcher[D]) SetLogger(logger log.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = log.OrNoop(logger)
}

// SetInstrument sets the instrument identity recorded in log events.
func (d *Dispatcher[D]) SetInstrument(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.instrument = name
}

// Execute runs every command unit of line against dev.
func (d *Dispatcher[D]) Execute(dev D, line string) *Result {
	return d.ExecuteFrom(dev, "", line)
}

// ExecuteFrom is Execute with the originating connection recorded in log
// events.
func (d *Dispatcher[D]) ExecuteFrom(dev D, connID, line string) *Result {
	d.mu.RLock()
	sink, logger, instrument := d.sink, d.logger, d.instrument
	d.mu.RUnlock()

	res := &Result{}
	ctx := model.NewContext()
	var responses []string

	output, _ := sink.(OutputSink)
	if output != nil {
		defer output.SetMessageAvailable(false)
	}

	for i, raw := range wire.SplitMessage(line) {
		start := time.Now()
		ur := d.executeUnit(dev, ctx, i, raw)
		ur.Elapsed = time.Since(start)

		if ur.Err != nil {
			ctx.ResetBranch()
			if sink != nil {
				sink.Push(ur.Err)
			}
		} else if len(ur.Response) > 0 {
			responses = append(responses, string(ur.Response))
			if output != nil {
				output.SetMessageAvailable(true)
			}
		}
		res.Units = append(res.Units, ur)
		logger.Log(unitEvent(connID, instrument, ur))
	}

	if len(responses) > 0 {
		res.Response = []byte(strings.Join(responses, wire.ResponseSeparator))
	}
	res.Errors = ctx.Errors()
	res.Err = ctx.Err()
	return res
}

func (d *Dispatcher[D]) executeUnit(dev D, ctx *model.Context, index int, raw string) UnitResult {
	u, err := wire.ParseUnit(raw)
	u.Index = index
	ctx.Begin(index, u)
	ur := UnitResult{Unit: u}
	if err != nil {
		ur.Err = ctx.Record(err)
		return ur
	}

	leaf, err := d.tree.Resolve(ctx, u)
	if err != nil {
		ur.Err = ctx.Record(err)
		return ur
	}
	ur.Leaf = leaf

	params := wire.NewParameters(u.Params)
	var resp *wire.Response
	if u.Query {
		resp = wire.NewResponse()
	}
	if err := d.tree.Invoke(dev, ctx, params, resp); err != nil {
		ur.Err = ctx.Record(err)
		return ur
	}
	if err := params.Done(); err != nil {
		ur.Err = ctx.Record(err)
		return ur
	}
	if resp != nil {
		ur.Response = resp.Bytes()
	}
	return ur
}

func unitEvent(connID, instrument string, ur UnitResult) log.Event {
	elapsed := ur.Elapsed
	ue := &log.UnitEvent{
		Index:          ur.Unit.Index,
		Header:         ur.Unit.String(),
		Query:          ur.Unit.Query,
		Params:         len(ur.Unit.Params),
		Response:       string(ur.Response),
		ProcessingTime: &elapsed,
	}
	if ur.Leaf != nil {
		ue.Path = ur.Leaf.Path()
	}
	if ur.Err != nil {
		code := ur.Err.Code
		ue.Code = &code
		ue.Kind = ur.Err.Kind.String()
	}
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerDispatch,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleInstrument,
		Instrument:   instrument,
		Unit:         ue,
	}
}
