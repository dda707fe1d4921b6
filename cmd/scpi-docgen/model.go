package main

import (
	"fmt"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// commonSubsystem groups the IEEE488.2 common commands.
const commonSubsystem = "Common Commands"

// DocModel holds the documentation data of all instruments.
type DocModel struct {
	Instruments []*InstrumentDoc
}

// InstrumentDoc is the reference data of one instrument.
type InstrumentDoc struct {
	Kind       string
	Identity   commands.Identity
	Stats      inspect.Stats
	Subsystems []*Subsystem
	Root       *model.Node
}

// Subsystem is a top-level branch of the tree, or the common commands.
type Subsystem struct {
	Name   string
	Leaves []inspect.LeafInfo

	// Node is the top-level branch; nil for the common commands.
	Node *model.Node
}

// Slug returns the anchor-friendly subsystem name.
func (s *Subsystem) Slug() string {
	if s.Name == commonSubsystem {
		return "common-commands"
	}
	return strings.ToLower(strings.TrimSuffix(s.Name, "#"))
}

// BuildDocModel builds the reference data of the named examples.
func BuildDocModel(kinds []string) (*DocModel, error) {
	m := &DocModel{}
	seen := make(map[string]bool)
	for _, kind := range kinds {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" || seen[kind] {
			continue
		}
		seen[kind] = true

		sim, err := examples.NewSimulation(kind, commands.Identity{})
		if err != nil {
			return nil, err
		}
		m.Instruments = append(m.Instruments, buildInstrumentDoc(sim))
	}
	if len(m.Instruments) == 0 {
		return nil, fmt.Errorf("no instruments selected")
	}
	return m, nil
}

func buildInstrumentDoc(sim *examples.Simulation) *InstrumentDoc {
	in := inspect.NewInspector(sim.Root)
	doc := &InstrumentDoc{
		Kind:     sim.Kind,
		Identity: sim.Identity(),
		Stats:    in.Stats(),
		Root:     sim.Root,
	}

	byName := make(map[string]*Subsystem)
	for _, leaf := range in.Leaves() {
		top := topNode(leaf)
		name := commonSubsystem
		if top != nil {
			name = top.Name()
		}
		s, ok := byName[name]
		if !ok {
			s = &Subsystem{Name: name, Node: top}
			byName[name] = s
			doc.Subsystems = append(doc.Subsystems, s)
		}
		s.Leaves = append(s.Leaves, leaf)
	}
	return doc
}

// topNode returns the top-level node above a leaf, or nil for common
// commands.
func topNode(leaf inspect.LeafInfo) *model.Node {
	if leaf.Common {
		return nil
	}
	n := leaf.Node
	for !n.Parent().IsRoot() {
		n = n.Parent()
	}
	return n
}
