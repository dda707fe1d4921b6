package model

import (
	"strings"
)

// Entry is the static registration record for one tree vertex. Leaves
// carry a Handler implementing EventHandler[D] and/or QueryHandler[D];
// branches carry Children.
type Entry[D any] struct {
	Name     string
	Default  bool
	Handler  any
	Children []Entry[D]
}

// Leaf returns the registration record for a terminal command.
func Leaf[D any](name string, isDefault bool, handler any) Entry[D] {
	return Entry[D]{Name: name, Default: isDefault, Handler: handler}
}

// Branch returns the registration record for a branch.
func Branch[D any](name string, isDefault bool, children ...Entry[D]) Entry[D] {
	return Entry[D]{Name: name, Default: isDefault, Children: children}
}

// Node is a compiled, read-only tree vertex.
type Node struct {
	mnemonic  Mnemonic
	isDefault bool
	parent    *Node
	children  []*Node
	defChild  *Node

	// Leaf data. binding indexes Tree.bindings; -1 for branches.
	binding int
	modes   Mode
}

// Mnemonic returns the node's declared mnemonic.
func (n *Node) Mnemonic() Mnemonic {
	return n.mnemonic
}

// Name returns the declared name, e.g. "VOLTage" or "OUTPut#".
func (n *Node) Name() string {
	return n.mnemonic.Notation()
}

// IsDefault reports whether the node is its parent's default child.
func (n *Node) IsDefault() bool {
	return n.isDefault
}

// IsLeaf reports whether the node holds a handler.
func (n *Node) IsLeaf() bool {
	return n.binding >= 0
}

// IsRoot reports whether the node is a tree root.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// IsCommon reports whether the node is an IEEE488.2 common command.
func (n *Node) IsCommon() bool {
	return !n.IsRoot() && n.mnemonic.IsCommon()
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the root of the tree the node belongs to.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Children returns the children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// DefaultChild returns the default child, if any.
func (n *Node) DefaultChild() *Node {
	return n.defChild
}

// Depth returns the number of edges between the node and the root.
func (n *Node) Depth() int {
	d := 0
	for cur := n; cur.parent != nil; cur = cur.parent {
		d++
	}
	return d
}

// Modes returns the supported invocation modes (zero for branches).
func (n *Node) Modes() Mode {
	return n.modes
}

// Path returns the long-form header of the node, e.g.
// ":SOURce:VOLTage:LEVel" or "*TRG".
func (n *Node) Path() string {
	if n.IsRoot() {
		return ":"
	}
	if n.IsCommon() {
		return n.mnemonic.Notation()
	}
	var parts []string
	for cur := n; !cur.IsRoot(); cur = cur.parent {
		parts = append(parts, cur.Name())
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte(':')
		b.WriteString(parts[i])
	}
	return b.String()
}

// child returns the direct child matching a program mnemonic.
func (n *Node) child(segment string) (*Node, int) {
	for _, c := range n.children {
		if c.IsCommon() {
			continue
		}
		if suffix, ok := c.mnemonic.Match(segment); ok {
			return c, suffix
		}
	}
	return nil, 0
}

// common returns the root-level common command named header.
func (n *Node) common(header string) *Node {
	for _, c := range n.children {
		if c.IsCommon() && c.mnemonic.Keyword.Matches(header) {
			return c
		}
	}
	return nil
}
