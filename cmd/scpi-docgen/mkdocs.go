package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// GenerateMkDocsYAML produces an mkdocs.yml whose docs_dir is docsDir.
func GenerateMkDocsYAML(m *DocModel, docsDir string) string {
	var b strings.Builder

	b.WriteString("site_name: SCPI Instrument Reference\n\n")
	b.WriteString("theme:\n")
	b.WriteString("  name: material\n")
	b.WriteString("  features:\n")
	b.WriteString("    - navigation.sections\n")
	b.WriteString("    - content.code.copy\n\n")

	fmt.Fprintf(&b, "docs_dir: %s\n\n", filepath.ToSlash(docsDir))

	b.WriteString("markdown_extensions:\n")
	b.WriteString("  - pymdownx.superfences:\n")
	b.WriteString("      custom_fences:\n")
	b.WriteString("        - name: mermaid\n")
	b.WriteString("          class: mermaid\n")
	b.WriteString("          format: !!python/name:pymdownx.superfences.fence_code_format\n")
	b.WriteString("  - tables\n")
	b.WriteString("  - admonition\n\n")

	b.WriteString("nav:\n")
	b.WriteString("  - Overview: index.md\n")
	for _, doc := range m.Instruments {
		fmt.Fprintf(&b, "  - %s: %s.md\n", doc.Identity.Model, doc.Kind)
	}
	return b.String()
}

// writeMkDocsConfig writes mkdocs.yml to path, pointing docs_dir at
// outputDir.
func writeMkDocsConfig(m *DocModel, path, outputDir string) error {
	docsDir, err := filepath.Rel(filepath.Dir(path), outputDir)
	if err != nil {
		docsDir = outputDir
	}
	return writeFile(path, GenerateMkDocsYAML(m, docsDir))
}
