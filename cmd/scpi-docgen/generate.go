package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/inspect"
)

// GenerateInstrumentPage produces the Markdown reference of one instrument.
func GenerateInstrumentPage(doc *InstrumentDoc) string {
	var b strings.Builder

	writeInstrumentHeader(&b, doc)
	writeCommandTree(&b, doc)
	if hasTriggerModel(doc) {
		b.WriteString("## Trigger Model\n\n")
		b.WriteString(TriggerStateDiagram())
		b.WriteString("\n")
	}
	writeSubsystems(&b, doc)

	return b.String()
}

func writeInstrumentHeader(b *strings.Builder, doc *InstrumentDoc) {
	fmt.Fprintf(b, "# %s\n\n", doc.Identity.Model)

	fmt.Fprintf(b, "| | |\n|---|---|\n")
	fmt.Fprintf(b, "| **Manufacturer** | %s |\n", doc.Identity.Manufacturer)
	fmt.Fprintf(b, "| **Model** | %s |\n", doc.Identity.Model)
	fmt.Fprintf(b, "| **Firmware** | %s |\n", doc.Identity.Firmware)
	fmt.Fprintf(b, "| **Simulation** | `%s` |\n", doc.Kind)
	b.WriteString("\n")

	fmt.Fprintf(b, "%s.\n\n", doc.Stats)
}

func writeCommandTree(b *strings.Builder, doc *InstrumentDoc) {
	f := inspect.NewFormatter()
	f.ShowDescriptions = false

	b.WriteString("## Command Tree\n\n")
	b.WriteString(SubsystemDiagram(doc))
	b.WriteString("\n```text\n")
	b.WriteString(f.FormatTree(doc.Root))
	b.WriteString("```\n\n")
}

func writeSubsystems(b *strings.Builder, doc *InstrumentDoc) {
	b.WriteString("## Commands\n\n")
	for _, s := range doc.Subsystems {
		fmt.Fprintf(b, "### %s\n\n", s.Name)
		b.WriteString("| Header | Short form | Forms | Description |\n")
		b.WriteString("|--------|------------|-------|-------------|\n")
		for _, leaf := range s.Leaves {
			fmt.Fprintf(b, "| `%s` | `%s` | %s | %s |\n",
				leaf.Notation,
				leaf.Short,
				formatForms(leaf),
				leaf.Description,
			)
		}
		b.WriteString("\n")
	}
}

// formatForms lists the program message forms of a leaf, e.g.
// "`VOLT <value>`, `VOLT?`".
func formatForms(leaf inspect.LeafInfo) string {
	var forms []string
	if leaf.Modes.Supports(false) {
		forms = append(forms, "`"+leaf.Short+"`")
	}
	if leaf.Modes.Supports(true) {
		forms = append(forms, "`"+leaf.Short+"?`")
	}
	return strings.Join(forms, ", ")
}

// hasTriggerModel reports whether the instrument exposes INITiate.
func hasTriggerModel(doc *InstrumentDoc) bool {
	for _, s := range doc.Subsystems {
		if s.Node == nil {
			continue
		}
		if _, ok := s.Node.Mnemonic().Match("INIT"); ok {
			return true
		}
	}
	return false
}

// GenerateIndexPage produces the overview of all instruments.
func GenerateIndexPage(m *DocModel) string {
	var b strings.Builder

	b.WriteString("# Instrument Reference\n\n")
	b.WriteString("| Instrument | Simulation | Leaves | Queries | Commands |\n")
	b.WriteString("|------------|------------|-------:|--------:|---------:|\n")
	for _, doc := range m.Instruments {
		fmt.Fprintf(&b, "| [%s](%s.md) | `%s` | %d | %d | %d |\n",
			doc.Identity.Model,
			doc.Kind,
			doc.Kind,
			doc.Stats.Leaves,
			doc.Stats.Queries,
			doc.Stats.Events,
		)
	}
	b.WriteString("\n")
	return b.String()
}

// generateAll writes index.md and one page per instrument.
func generateAll(m *DocModel, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeFile(filepath.Join(outputDir, "index.md"), GenerateIndexPage(m)); err != nil {
		return err
	}
	for _, doc := range m.Instruments {
		path := filepath.Join(outputDir, doc.Kind+".md")
		if err := writeFile(path, GenerateInstrumentPage(doc)); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
