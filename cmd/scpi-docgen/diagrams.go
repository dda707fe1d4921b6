package main

import (
	"fmt"
	"strings"
)

const mermaidFence = "```"

// TriggerStateDiagram returns a fenced Mermaid stateDiagram-v2 of the
// IEEE488.2 trigger model behind INITiate and *TRG.
func TriggerStateDiagram() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%smermaid\n", mermaidFence)
	b.WriteString("stateDiagram-v2\n")
	b.WriteString("    [*] --> IDLE\n")
	b.WriteString("    IDLE --> IDLE : INITiate (source IMMediate) / action taken\n")
	b.WriteString("    IDLE --> INITIATED : INITiate (source BUS)\n")
	b.WriteString("    IDLE --> IDLE : *TRG / -211 Trigger ignored\n")
	b.WriteString("    INITIATED --> IDLE : *TRG / action taken\n")
	b.WriteString("    INITIATED --> INITIATED : INITiate / -213 Init ignored\n")
	b.WriteString("    INITIATED --> IDLE : *RST\n")
	fmt.Fprintf(&b, "%s\n", mermaidFence)
	return b.String()
}

// SubsystemDiagram returns a fenced Mermaid graph of the instrument's
// top-level subsystems.
func SubsystemDiagram(doc *InstrumentDoc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%smermaid\ngraph LR\n", mermaidFence)
	rootID := sanitizeMermaidID(doc.Kind)
	fmt.Fprintf(&b, "    %s[\"%s\"]\n", rootID, doc.Identity.Model)
	for _, s := range doc.Subsystems {
		id := rootID + "_" + sanitizeMermaidID(s.Slug())
		fmt.Fprintf(&b, "    %s --> %s[\"%s (%d)\"]\n", rootID, id, s.Name, len(s.Leaves))
	}
	fmt.Fprintf(&b, "%s\n", mermaidFence)
	return b.String()
}

// sanitizeMermaidID replaces characters Mermaid does not accept in node
// IDs.
func sanitizeMermaidID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
