package version

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

//go:embed specs/*.yaml
var specFS embed.FS

// SpecManifest lists the commands an instrument claiming a SCPI version
// must and may implement.
type SpecManifest struct {
	Version     string       `yaml:"version"`
	Description string       `yaml:"description"`
	Mandatory   []CommandDef `yaml:"mandatory"`
	Optional    []CommandDef `yaml:"optional"`
}

// CommandDef is one required header with its modes.
type CommandDef struct {
	Header string `yaml:"header"`
	Query  bool   `yaml:"query"`
	Event  bool   `yaml:"event"`
}

// String returns the header with a query marker when only the query is
// required.
func (c CommandDef) String() string {
	if c.Query && !c.Event {
		return c.Header + "?"
	}
	return c.Header
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*SpecManifest)
)

// LoadSpec loads a manifest by version string (e.g. "1999.0").
func LoadSpec(ver string) (*SpecManifest, error) {
	cacheMu.RLock()
	if s, ok := cache[ver]; ok {
		cacheMu.RUnlock()
		return s, nil
	}
	cacheMu.RUnlock()

	data, err := specFS.ReadFile("specs/" + ver + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("spec version %q not found: %w", ver, err)
	}

	var m SpecManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing spec %q: %w", ver, err)
	}

	cacheMu.Lock()
	cache[ver] = &m
	cacheMu.Unlock()

	return &m, nil
}

// LoadCurrentSpec loads the manifest for Current.
func LoadCurrentSpec() (*SpecManifest, error) {
	return LoadSpec(Current)
}

// AvailableSpecs returns the version strings of all embedded manifests.
func AvailableSpecs() ([]string, error) {
	entries, err := specFS.ReadDir("specs")
	if err != nil {
		return nil, fmt.Errorf("reading specs directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Resolver looks up headers in a command tree. model.Tree implements it.
type Resolver interface {
	Lookup(header string) (*model.Node, error)
}

// ValidationResult holds the outcome of validating a tree against a manifest.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateTree checks that every mandatory command resolves with the
// required modes. Missing optional commands are reported as warnings.
func ValidateTree(spec *SpecManifest, tree Resolver) ValidationResult {
	var result ValidationResult

	for _, def := range spec.Mandatory {
		if msg := check(def, tree); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}
	for _, def := range spec.Optional {
		if msg := check(def, tree); msg != "" {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func check(def CommandDef, tree Resolver) string {
	n, err := tree.Lookup(def.Header)
	if err != nil {
		return fmt.Sprintf("%s missing", def)
	}
	if def.Query && !n.Modes().Supports(true) {
		return fmt.Sprintf("%s has no query form", def.Header)
	}
	if def.Event && !n.Modes().Supports(false) {
		return fmt.Sprintf("%s has no command form", def.Header)
	}
	return ""
}
