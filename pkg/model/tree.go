package model

import (
	"fmt"

	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Tree is a compiled command tree specialized for device type D. It is
// immutable after NewTree returns and may be shared between goroutines.
type Tree[D any] struct {
	root     *Node
	bindings []binding[D]
}

// NewTree validates and compiles the top-level entries.
func NewTree[D any](entries ...Entry[D]) (*Tree[D], error) {
	t := &Tree[D]{
		root: &Node{binding: -1},
	}
	children, def, err := t.compileChildren(t.root, entries)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrEmptyBranch
	}
	t.root.children = children
	t.root.defChild = def
	return t, nil
}

// MustTree is like NewTree but panics on error. It is meant for trees
// declared as package-level variables.
func MustTree[D any](entries ...Entry[D]) *Tree[D] {
	t, err := NewTree(entries...)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return t
}

func (t *Tree[D]) compileChildren(parent *Node, entries []Entry[D]) ([]*Node, *Node, error) {
	var (
		children []*Node
		def      *Node
	)
	for _, e := range entries {
		n, err := t.compile(parent, e)
		if err != nil {
			return nil, nil, err
		}
		for _, sib := range children {
			if sib.mnemonic.Overlaps(n.mnemonic) {
				return nil, nil, fmt.Errorf("%s: %w: %s and %s", parent.Path(), ErrAmbiguousMnemonic, sib.Name(), n.Name())
			}
		}
		if n.isDefault {
			if def != nil {
				return nil, nil, fmt.Errorf("%s: %w: %s and %s", parent.Path(), ErrMultipleDefaults, def.Name(), n.Name())
			}
			def = n
		}
		children = append(children, n)
	}
	return children, def, nil
}

func (t *Tree[D]) compile(parent *Node, e Entry[D]) (*Node, error) {
	m, err := ParseMnemonic(e.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", parent.Path(), err)
	}
	n := &Node{
		mnemonic:  m,
		isDefault: e.Default,
		parent:    parent,
		binding:   -1,
	}
	path := n.Path()

	if m.IsCommon() {
		switch {
		case !parent.IsRoot() || len(e.Children) > 0:
			return nil, fmt.Errorf("%s: %w", path, ErrCommonPlacement)
		case e.Default:
			return nil, fmt.Errorf("%s: %w", path, ErrCommonDefault)
		}
	}

	switch {
	case e.Handler != nil && len(e.Children) > 0:
		return nil, fmt.Errorf("%s: %w", path, ErrLeafWithChildren)
	case e.Handler == nil && len(e.Children) == 0:
		if e.Children != nil {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyBranch)
		}
		return nil, fmt.Errorf("%s: %w", path, ErrNoHandler)
	case e.Handler != nil:
		b, err := bind[D](e.Handler)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		n.binding = len(t.bindings)
		n.modes = b.modes
		t.bindings = append(t.bindings, b)
		return n, nil
	}

	children, def, err := t.compileChildren(n, e.Children)
	if err != nil {
		return nil, err
	}
	n.children = children
	n.defChild = def
	return n, nil
}

// Root returns the root branch.
func (t *Tree[D]) Root() *Node {
	return t.root
}

// Walk visits every node below the root in depth-first declaration order.
// Returning false from fn skips the node's subtree.
func (t *Tree[D]) Walk(fn func(n *Node) bool) {
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if fn(c) {
				walk(c)
			}
		}
	}
	walk(t.root)
}

// Leaves returns every leaf in declaration order.
func (t *Tree[D]) Leaves() []*Node {
	var out []*Node
	t.Walk(func(n *Node) bool {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Resolve finds the leaf addressed by u, starting from the branch carried
// in ctx, and records the result in ctx. On failure the carried branch is
// reset to the root.
func (t *Tree[D]) Resolve(ctx *Context, u *wire.Unit) (*Node, error) {
	leaf, err := t.resolve(ctx, u)
	if err != nil {
		ctx.ResetBranch()
		return nil, err
	}
	return leaf, nil
}

func (t *Tree[D]) resolve(ctx *Context, u *wire.Unit) (*Node, error) {
	if u.Common {
		n := t.root.common(u.Header)
		if n == nil {
			return nil, wire.UndefinedHeader(u.String())
		}
		ctx.resolved(n, []Step{{Node: n, Suffix: DefaultSuffix}}, nil, true)
		return n, nil
	}

	var steps []Step
	if !u.Absolute {
		steps = append(steps, ctx.carried...)
	}
	cur := t.root
	if len(steps) > 0 {
		cur = steps[len(steps)-1].Node
	}

	lastExplicit := -1
	for _, seg := range u.Segments {
		if cur.IsLeaf() {
			return nil, wire.UndefinedHeader(u.String())
		}
		path := descend(cur, seg)
		if path == nil {
			return nil, wire.UndefinedHeader(u.String())
		}
		steps = append(steps, path...)
		lastExplicit = len(steps) - 1
		cur = steps[lastExplicit].Node
	}

	for !cur.IsLeaf() {
		if cur.defChild == nil {
			return nil, wire.UndefinedHeader(u.String())
		}
		cur = cur.defChild
		steps = append(steps, Step{Node: cur, Suffix: DefaultSuffix, Implicit: true})
	}

	for _, s := range steps {
		if s.Node.mnemonic.Suffixed && s.Suffix < 1 {
			return nil, wire.NewError(wire.KindUndefinedHeader, wire.CodeHeaderSuffixOutOfRange, u.String())
		}
	}

	carried := make([]Step, lastExplicit)
	copy(carried, steps[:lastExplicit])
	ctx.resolved(cur, steps, carried, false)
	return cur, nil
}

// descend matches seg against the children of n, entering default
// branches when no child matches directly. It returns the steps taken,
// the last one being the explicit match, or nil.
func descend(n *Node, seg string) []Step {
	if c, suffix := n.child(seg); c != nil {
		return []Step{{Node: c, Suffix: suffix}}
	}
	def := n.defChild
	if def == nil || def.IsLeaf() {
		return nil
	}
	rest := descend(def, seg)
	if rest == nil {
		return nil
	}
	return append([]Step{{Node: def, Suffix: DefaultSuffix, Implicit: true}}, rest...)
}

// Invoke runs the handler of the leaf resolved in ctx. A query handler
// writes to resp; resp may be nil for events. Mode mismatches are
// rejected before any handler runs.
func (t *Tree[D]) Invoke(dev D, ctx *Context, params *wire.Parameters, resp *wire.Response) error {
	leaf := ctx.Leaf()
	if leaf == nil || !leaf.IsLeaf() || leaf.binding >= len(t.bindings) {
		return wire.UndefinedHeader(ctx.Header())
	}
	b := t.bindings[leaf.binding]

	query := ctx.Query()
	if !b.modes.Supports(query) {
		return wire.ModeNotSupported(ctx.Header(), query)
	}
	if params == nil {
		params = wire.NewParameters(nil)
	}
	if query {
		if resp == nil {
			resp = wire.NewResponse()
		}
		return b.query.Query(dev, ctx, params, resp)
	}
	return b.event.Event(dev, ctx, params)
}

// Lookup resolves an absolute header such as "SOUR:VOLT" or "*TRG" without
// invoking anything.
func (t *Tree[D]) Lookup(header string) (*Node, error) {
	u, err := wire.ParseUnit(header)
	if err != nil {
		return nil, err
	}
	return t.Resolve(NewContext(), u)
}
