// Command scpi-treegen generates Go command tree constructors from YAML
// tree definitions.
//
// Usage:
//
//	scpi-treegen -input tree.yaml -output tree_gen.go [-manifest manifest.yaml]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	input := flag.String("input", "", "Tree definition (YAML)")
	output := flag.String("output", "", "Output path for the generated Go file")
	manifest := flag.String("manifest", "", "Output path for the derived conformance manifest")
	flag.Parse()

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: scpi-treegen -input <tree.yaml> -output <file.go> [-manifest <path>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*input, *output, *manifest); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output, manifestPath string) error {
	def, err := LoadTreeDef(input)
	if err != nil {
		return err
	}

	code, err := GenerateTree(def)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s\n", output)

	if manifestPath == "" {
		return nil
	}
	m, err := DeriveManifest(def)
	if err != nil {
		return fmt.Errorf("deriving manifest: %w", err)
	}
	data, err := MarshalManifest(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return fmt.Errorf("creating manifest dir: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Printf("  generated %s\n", manifestPath)
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
