package inspect

import (
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// Header markers used by SYSTem:HELP:HEADers?.
const (
	QueryOnlyMarker = "/qonly/"
	NoQueryMarker   = "/nquery/"
)

// Notation returns the full SCPI notation of a node: defaults in square
// brackets, e.g. ":SOURce:VOLTage[:LEVel][:IMMediate]" or "*TRG".
func Notation(n *model.Node) string {
	if n == nil || n.IsRoot() {
		return ":"
	}
	if n.IsCommon() {
		return n.Name()
	}

	var parts []*model.Node
	for cur := n; !cur.IsRoot(); cur = cur.Parent() {
		parts = append(parts, cur)
	}

	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if p.IsDefault() {
			sb.WriteString("[:" + p.Name() + "]")
		} else {
			sb.WriteString(":" + p.Name())
		}
	}
	return sb.String()
}

// HeaderLine returns the SYSTem:HELP:HEADers? line for a leaf: its
// notation followed by "?" when queries are supported and a marker for
// single-mode leaves.
func HeaderLine(n *model.Node) string {
	h := Notation(n)
	switch n.Modes() {
	case model.ModeQuery:
		return h + "?" + QueryOnlyMarker
	case model.ModeEvent:
		return h + NoQueryMarker
	default:
		return h + "?"
	}
}

// ShortHeader returns the shortest explicit header that reaches n, e.g.
// "VOLT:TRIG" for ":SOURce:VOLTage[:LEVel]:TRIGgered". Default nodes are
// left out.
func ShortHeader(n *model.Node) string {
	if n == nil || n.IsRoot() {
		return ""
	}
	if n.IsCommon() {
		return n.Mnemonic().Short
	}

	var parts []string
	for cur := n; !cur.IsRoot(); cur = cur.Parent() {
		if cur.IsDefault() && cur != n {
			continue
		}
		parts = append(parts, cur.Mnemonic().Short)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ":")
}
