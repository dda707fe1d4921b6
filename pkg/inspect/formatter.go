package inspect

import (
	"fmt"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowModes appends the supported modes to each leaf.
	ShowModes bool

	// ShowDescriptions appends registered descriptions.
	ShowDescriptions bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowModes:        true,
		ShowDescriptions: true,
		IndentWidth:      2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatMode returns a compact mode label: "cmd", "query" or "cmd+query".
func FormatMode(m model.Mode) string {
	switch m {
	case model.ModeEvent:
		return "cmd"
	case model.ModeQuery:
		return "query"
	case model.ModeBoth:
		return "cmd+query"
	default:
		return "-"
	}
}

// FormatTree renders the tree below root, one node per line. Default
// nodes are bracketed.
func (f *Formatter) FormatTree(root *model.Node) string {
	var sb strings.Builder
	f.formatChildren(&sb, root, 0)
	return sb.String()
}

func (f *Formatter) formatChildren(sb *strings.Builder, n *model.Node, depth int) {
	for _, c := range n.Children() {
		name := c.Name()
		if c.IsDefault() {
			name = "[" + name + "]"
		}
		if c.IsLeaf() {
			if f.ShowModes {
				name += fmt.Sprintf(" (%s)", FormatMode(c.Modes()))
			}
			if d := Describe(c.Path()); f.ShowDescriptions && d != "" {
				name += " - " + d
			}
		}
		sb.WriteString(f.Indent(depth, name))
		sb.WriteByte('\n')
		f.formatChildren(sb, c, depth+1)
	}
}

// FormatLeafTable formats leaves as aligned columns: notation, modes and
// description.
func (f *Formatter) FormatLeafTable(leaves []LeafInfo) string {
	if len(leaves) == 0 {
		return "  (no commands)"
	}

	width := 0
	for _, l := range leaves {
		width = max(width, len(l.Notation))
	}

	var sb strings.Builder
	for _, l := range leaves {
		sb.WriteString(fmt.Sprintf("  %-*s", width, l.Notation))
		if f.ShowModes {
			sb.WriteString(fmt.Sprintf("  %-9s", FormatMode(l.Modes)))
		}
		if f.ShowDescriptions && l.Description != "" {
			sb.WriteString("  " + l.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
