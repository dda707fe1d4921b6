package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// Inspector provides read-only views of a compiled command tree.
type Inspector struct {
	root *model.Node
}

// NewInspector creates an inspector for the tree rooted at root. Any node
// of the tree may be passed; its root is used.
func NewInspector(root *model.Node) *Inspector {
	return &Inspector{root: root.Root()}
}

// Root returns the inspected root.
func (i *Inspector) Root() *model.Node {
	return i.root
}

// LeafInfo describes one leaf.
type LeafInfo struct {
	Path        string
	Notation    string
	Short       string
	Modes       model.Mode
	Common      bool
	Description string
	Node        *model.Node
}

// Leaves returns every leaf in declaration order.
func (i *Inspector) Leaves() []LeafInfo {
	var out []LeafInfo
	walk(i.root, func(n *model.Node) {
		if !n.IsLeaf() {
			return
		}
		out = append(out, LeafInfo{
			Path:        n.Path(),
			Notation:    Notation(n),
			Short:       ShortHeader(n),
			Modes:       n.Modes(),
			Common:      n.IsCommon(),
			Description: Describe(n.Path()),
			Node:        n,
		})
	})
	return out
}

// Headers returns the SYSTem:HELP:HEADers? lines, common commands first,
// each group in declaration order.
func (i *Inspector) Headers() []string {
	leaves := i.Leaves()
	sort.SliceStable(leaves, func(a, b int) bool {
		return leaves[a].Common && !leaves[b].Common
	})
	out := make([]string, len(leaves))
	for k, l := range leaves {
		out[k] = HeaderLine(l.Node)
	}
	return out
}

// Find returns the leaves whose long-form path contains substr
// (case-insensitive).
func (i *Inspector) Find(substr string) []LeafInfo {
	needle := strings.ToUpper(substr)
	var out []LeafInfo
	for _, l := range i.Leaves() {
		if strings.Contains(strings.ToUpper(l.Path), needle) {
			out = append(out, l)
		}
	}
	return out
}

// Stats summarizes the tree.
type Stats struct {
	Branches int
	Leaves   int
	Common   int
	Queries  int
	Events   int
	MaxDepth int
}

// Stats counts nodes by kind.
func (i *Inspector) Stats() Stats {
	var s Stats
	walk(i.root, func(n *model.Node) {
		if d := n.Depth(); d > s.MaxDepth {
			s.MaxDepth = d
		}
		if !n.IsLeaf() {
			s.Branches++
			return
		}
		s.Leaves++
		if n.IsCommon() {
			s.Common++
		}
		if n.Modes().Supports(true) {
			s.Queries++
		}
		if n.Modes().Supports(false) {
			s.Events++
		}
	})
	return s
}

// String renders the stats on one line.
func (s Stats) String() string {
	return fmt.Sprintf("%d leaves (%d common, %d queries, %d events), %d branches, depth %d",
		s.Leaves, s.Common, s.Queries, s.Events, s.Branches, s.MaxDepth)
}

func walk(n *model.Node, fn func(*model.Node)) {
	for _, c := range n.Children() {
		fn(c)
		walk(c, fn)
	}
}
