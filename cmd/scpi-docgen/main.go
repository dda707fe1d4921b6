// Command scpi-docgen writes a Markdown command reference for the example
// instruments.
//
// Usage:
//
//	scpi-docgen -output docs/reference [-instruments psu,dmm] [-mkdocs mkdocs.yml]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	outputDir := flag.String("output", "", "Output directory for generated Markdown")
	instruments := flag.String("instruments", "psu,dmm", "Comma-separated example instruments")
	mkdocs := flag.String("mkdocs", "", "Also write an mkdocs.yml navigation file to this path")
	flag.Parse()

	if *outputDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: scpi-docgen -output <dir> [-instruments psu,dmm] [-mkdocs <path>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(strings.Split(*instruments, ","), *outputDir, *mkdocs); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(kinds []string, outputDir, mkdocsPath string) error {
	m, err := BuildDocModel(kinds)
	if err != nil {
		return fmt.Errorf("building doc model: %w", err)
	}
	if err := generateAll(m, outputDir); err != nil {
		return err
	}
	if mkdocsPath == "" {
		return nil
	}
	return writeMkDocsConfig(m, mkdocsPath, outputDir)
}
