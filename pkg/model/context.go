package model

import (
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Step is one vertex on a resolved path.
type Step struct {
	Node *Node

	// Suffix is the numeric suffix given for Node (DefaultSuffix when
	// omitted or when the node takes none).
	Suffix int

	// Implicit is set when Node was entered through a default child
	// rather than named in the header.
	Implicit bool
}

// Context is the per-line dispatch state. A Context is created for one
// program message, handed to every handler invoked for it and discarded
// afterwards. It is not safe for concurrent use.
type Context struct {
	index int
	unit  *wire.Unit
	leaf  *Node
	steps []Step

	// carried is the path from the root to the branch the next relative
	// header continues from. Empty means the root.
	carried []Step

	errs []*wire.Error
}

// NewContext creates the state for one program message.
func NewContext() *Context {
	return &Context{index: -1}
}

// Begin starts a new command unit. The carried branch is kept.
func (c *Context) Begin(index int, unit *wire.Unit) {
	c.index = index
	c.unit = unit
	c.leaf = nil
	c.steps = nil
}

// Unit returns the command unit being dispatched.
func (c *Context) Unit() *wire.Unit {
	return c.unit
}

// UnitIndex returns the zero-based position of the current unit in its line.
func (c *Context) UnitIndex() int {
	return c.index
}

// Header returns the current header as received, including any query marker.
func (c *Context) Header() string {
	if c.unit == nil {
		return ""
	}
	return c.unit.String()
}

// Query reports whether the current unit is a query.
func (c *Context) Query() bool {
	return c.unit != nil && c.unit.Query
}

// Leaf returns the resolved leaf of the current unit, or nil.
func (c *Context) Leaf() *Node {
	return c.leaf
}

// Path returns the resolved path of the current unit, root excluded.
func (c *Context) Path() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Suffix returns the numeric suffix of the i-th suffixed node on the
// resolved path (zero-based), or DefaultSuffix if there is no such node.
// For "OUTPut2:TRACe3" Suffix(0) is 2 and Suffix(1) is 3.
func (c *Context) Suffix(i int) int {
	n := 0
	for _, s := range c.steps {
		if !s.Node.mnemonic.Suffixed {
			continue
		}
		if n == i {
			return s.Suffix
		}
		n++
	}
	return DefaultSuffix
}

// Branch returns the branch the next relative header continues from, or
// nil for the root.
func (c *Context) Branch() *Node {
	if len(c.carried) == 0 {
		return nil
	}
	return c.carried[len(c.carried)-1].Node
}

// ResetBranch returns the carried branch to the root.
func (c *Context) ResetBranch() {
	c.carried = nil
}

// Record attaches a unit failure. Nil errors are ignored.
func (c *Context) Record(err error) *wire.Error {
	perr := wire.AsError(err)
	if perr != nil {
		c.errs = append(c.errs, perr)
	}
	return perr
}

// Errors returns every recorded failure in unit order.
func (c *Context) Errors() []*wire.Error {
	return c.errs
}

// Err returns the worst recorded failure, or nil.
func (c *Context) Err() *wire.Error {
	var worst *wire.Error
	for _, e := range c.errs {
		worst = wire.Worst(worst, e)
	}
	return worst
}

// resolved stores a successful lookup. carried is nil for common
// commands, which leave the branch untouched.
func (c *Context) resolved(leaf *Node, steps []Step, carried []Step, keepBranch bool) {
	c.leaf = leaf
	c.steps = steps
	if !keepBranch {
		c.carried = carried
	}
}
