package main

import (
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/scpi-protocol/scpi-go/pkg/version"
)

var funcMap = template.FuncMap{
	"quote":  func(s string) string { return fmt.Sprintf("%q", s) },
	"indent": func(n int) string { return strings.Repeat("\t", n) },
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(treeTmpl + entryTmpl))

const treeTmpl = `{{define "tree"}}// Code generated by scpi-treegen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/model"
)
{{if .Descriptions}}
func init() {
{{- range .Descriptions}}
	inspect.RegisterDescription({{quote .Path}}, {{quote .Text}})
{{- end}}
}
{{end}}
// {{.Name}}Tree returns the command tree of {{.Device}}.
func {{.Name}}Tree() *model.Tree[{{.Device}}] {
	type D = {{.Device}}
{{- if .Common}}
	entries := commands.Common[D]()
{{- else}}
	var entries []model.Entry[D]
{{- end}}
	entries = append(entries,
{{- if .System}}
		commands.System[D](),
{{- end}}
{{- range .Entries}}{{template "entry" .}}{{end}}
	)
	return model.MustTree(entries...)
}
{{end}}`

const entryTmpl = `{{define "entry"}}
{{- if .Leaf}}
{{- if .Both}}
{{indent .Depth}}model.Leaf[D]({{quote .Name}}, {{.Default}}, model.Handlers[D]{
{{indent .Depth}}	OnEvent: {{.Event}},
{{indent .Depth}}	OnQuery: {{.Query}},
{{indent .Depth}}}),
{{- else if .Event}}
{{indent .Depth}}model.Leaf[D]({{quote .Name}}, {{.Default}}, model.EventFunc[D]({{.Event}})),
{{- else}}
{{indent .Depth}}model.Leaf[D]({{quote .Name}}, {{.Default}}, model.QueryFunc[D]({{.Query}})),
{{- end}}
{{- else}}
{{indent .Depth}}model.Branch[D]({{quote .Name}}, {{.Default}},
{{- range .Children}}{{template "entry" .}}{{end}}
{{indent .Depth}}),
{{- end}}
{{- end}}`

type treeData struct {
	Package      string
	Name         string
	Device       string
	Common       bool
	System       bool
	Entries      []entryData
	Descriptions []descriptionData
}

type entryData struct {
	Name     string
	Default  bool
	Depth    int
	Leaf     bool
	Both     bool
	Event    string
	Query    string
	Children []entryData
}

type descriptionData struct {
	Path string
	Text string
}

// methodExpr returns the method expression for a device method, e.g.
// "(*PowerSupply).setVoltage".
func methodExpr(device, method string) string {
	if method == "" {
		return ""
	}
	return "(" + device + ")." + method
}

func buildEntries(def *RawTreeDef, nodes []RawNodeDef, depth int, prefix string, descs *[]descriptionData) []entryData {
	out := make([]entryData, 0, len(nodes))
	for _, n := range nodes {
		path := prefix + ":" + n.Name
		e := entryData{
			Name:    n.Name,
			Default: n.Default,
			Depth:   depth,
			Leaf:    n.IsLeaf(),
			Both:    n.Event != "" && n.Query != "",
			Event:   methodExpr(def.Device, n.Event),
			Query:   methodExpr(def.Device, n.Query),
		}
		if n.Description != "" {
			*descs = append(*descs, descriptionData{Path: path, Text: n.Description})
		}
		if !e.Leaf {
			e.Children = buildEntries(def, n.Nodes, depth+1, path, descs)
		}
		out = append(out, e)
	}
	return out
}

// GenerateTree renders the Go source of the tree constructor. The output
// still needs goimports to drop unused imports.
func GenerateTree(def *RawTreeDef) (string, error) {
	data := treeData{
		Package: def.Package,
		Name:    def.Name,
		Device:  def.Device,
		Common:  def.Common,
		System:  def.System,
	}
	data.Entries = buildEntries(def, def.Nodes, 2, "", &data.Descriptions)

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, "tree", data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", def.Name, err)
	}
	return b.String(), nil
}

// DeriveManifest lists every leaf of the definition as a conformance
// manifest. Leaves marked optional go to the optional list.
func DeriveManifest(def *RawTreeDef) (*version.SpecManifest, error) {
	m := &version.SpecManifest{Version: version.Current}
	if def.Manifest != nil {
		if def.Manifest.Version != "" {
			m.Version = def.Manifest.Version
		}
		m.Description = def.Manifest.Description
	}
	if m.Description == "" {
		m.Description = fmt.Sprintf("%s command set", def.Name)
	}

	var walk func(nodes []RawNodeDef, path []string)
	walk = func(nodes []RawNodeDef, path []string) {
		for _, n := range nodes {
			p := append(append([]string(nil), path...), n.Name)
			if !n.IsLeaf() {
				walk(n.Nodes, p)
				continue
			}
			cd := version.CommandDef{Header: headerOf(p), Event: n.Event != "", Query: n.Query != ""}
			if n.Optional {
				m.Optional = append(m.Optional, cd)
			} else {
				m.Mandatory = append(m.Mandatory, cd)
			}
		}
	}
	walk(def.Nodes, nil)
	return m, nil
}

// MarshalManifest renders a manifest in the embedded specs/ format.
func MarshalManifest(m *version.SpecManifest) ([]byte, error) {
	return yaml.Marshal(m)
}
