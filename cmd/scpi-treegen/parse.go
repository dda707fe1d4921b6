package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// RawTreeDef is a command tree definition loaded from YAML.
type RawTreeDef struct {
	Package string `yaml:"package"`

	// Name prefixes the generated constructor: <Name>Tree.
	Name string `yaml:"name"`

	// Device is the Go device type handlers are methods of, e.g.
	// "*PowerSupply".
	Device string `yaml:"device"`

	// Common includes the IEEE488.2 common commands.
	Common bool `yaml:"common"`

	// System includes the mandatory SYSTem subsystem.
	System bool `yaml:"system"`

	Manifest *RawManifestDef `yaml:"manifest"`

	Nodes []RawNodeDef `yaml:"nodes"`
}

// RawManifestDef describes the derived conformance manifest.
type RawManifestDef struct {
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// RawNodeDef is one branch or leaf.
type RawNodeDef struct {
	Name    string `yaml:"name"`
	Default bool   `yaml:"default"`

	// Event and Query name device methods. Setting either makes the node
	// a leaf.
	Event string `yaml:"event"`
	Query string `yaml:"query"`

	// Optional leaves are listed as optional in the derived manifest.
	Optional bool `yaml:"optional"`

	Description string `yaml:"description"`

	Nodes []RawNodeDef `yaml:"nodes"`
}

// IsLeaf reports whether the node binds handlers.
func (n *RawNodeDef) IsLeaf() bool {
	return n.Event != "" || n.Query != ""
}

// LoadTreeDef reads and validates a tree definition.
func LoadTreeDef(path string) (*RawTreeDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseTreeDef(data)
}

// ParseTreeDef parses and validates a tree definition.
func ParseTreeDef(data []byte) (*RawTreeDef, error) {
	var def RawTreeDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing tree definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// reservedTop are top-level mnemonics owned by the System subsystem.
var reservedTop = []string{"SYSTem"}

// Validate checks the definition by compiling it into a command tree with
// placeholder handlers, so every rule of model.NewTree applies.
func (d *RawTreeDef) Validate() error {
	if d.Package == "" {
		return fmt.Errorf("package is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Device == "" {
		return fmt.Errorf("device is required")
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("%s: %w", d.Name, model.ErrEmptyBranch)
	}

	if d.System {
		for _, n := range d.Nodes {
			for _, r := range reservedTop {
				if overlaps(n.Name, r) {
					return fmt.Errorf("%s collides with the SYSTem subsystem", n.Name)
				}
			}
		}
	}

	entries := make([]model.Entry[struct{}], 0, len(d.Nodes))
	for _, n := range d.Nodes {
		entries = append(entries, checkEntry(n))
	}
	if _, err := model.NewTree(entries...); err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}
	return nil
}

func overlaps(a, b string) bool {
	ma, err := model.ParseMnemonic(a)
	if err != nil {
		return false
	}
	mb, err := model.ParseMnemonic(b)
	if err != nil {
		return false
	}
	return ma.Overlaps(mb)
}

func checkEntry(n RawNodeDef) model.Entry[struct{}] {
	e := model.Entry[struct{}]{Name: n.Name, Default: n.Default}
	for _, c := range n.Nodes {
		e.Children = append(e.Children, checkEntry(c))
	}
	if n.IsLeaf() {
		e.Handler = placeholder(n)
	}
	return e
}

func placeholder(n RawNodeDef) model.Handlers[struct{}] {
	var h model.Handlers[struct{}]
	if n.Event != "" {
		h.OnEvent = func(struct{}, *model.Context, *wire.Parameters) error { return nil }
	}
	if n.Query != "" {
		h.OnQuery = func(struct{}, *model.Context, *wire.Parameters, *wire.Response) error { return nil }
	}
	return h
}

// headerOf returns the long-form header of a leaf path for manifests:
// suffix markers dropped.
func headerOf(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strings.TrimSuffix(p, "#")
	}
	if len(parts) == 1 && strings.HasPrefix(parts[0], "*") {
		return parts[0]
	}
	return strings.Join(parts, ":")
}
