// Command scpi-test runs YAML conformance test cases against a SCPI
// instrument.
//
// Tests run over a socket against a real or simulated instrument, or
// in-process against one of the bundled simulations. Test cases listing
// headers the instrument does not advertise in SYSTem:HELP:HEADers? are
// skipped.
//
// Usage:
//
//	scpi-test [flags] [test-pattern]
//
// Flags:
//
//	-target string        Target address (host:port) of the instrument under test
//	-simulate string      Run against an in-process simulation (psu, dmm)
//	-tests string         Path to test cases directory (default "./testdata/cases")
//	-files string         Comma-separated glob patterns for test file names
//	-tags string          Only run tests with one of these tags
//	-exclude-tags string  Skip tests with any of these tags
//	-timeout duration     Test timeout (default 30s)
//	-query-timeout duration Timeout for a single query (default 5s)
//	-no-reset             Do not send *RST;*CLS before each test
//	-stop                 Stop at the first failing test
//	-verbose              Enable verbose output
//	-json                 Output results as JSON
//	-junit                Output results as JUnit XML
//	-protocol-log string  File path for protocol event logging (CBOR format)
//
// Examples:
//
//	# Test an instrument at 192.168.1.50:5025
//	scpi-test -target 192.168.1.50:5025
//
//	# Run the trigger tests against the simulated multimeter
//	scpi-test -simulate dmm -files "trigger-*" -verbose
//
//	# Run one test by ID
//	scpi-test -target localhost:5025 TC-TRG-001
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/runner"
	scpilog "github.com/scpi-protocol/scpi-go/pkg/log"
)

var (
	target       = flag.String("target", "", "Target address (host:port) of the instrument under test")
	simulate     = flag.String("simulate", "", "Run against an in-process simulation (psu, dmm)")
	tests        = flag.String("tests", "./testdata/cases", "Path to test cases directory")
	files        = flag.String("files", "", "Comma-separated glob patterns for test file names")
	tags         = flag.String("tags", "", "Only run tests with one of these tags (comma-separated)")
	excludeTags  = flag.String("exclude-tags", "", "Skip tests with any of these tags (comma-separated)")
	timeout      = flag.Duration("timeout", 30*time.Second, "Test timeout")
	queryTimeout = flag.Duration("query-timeout", 5*time.Second, "Timeout for a single query")
	noReset      = flag.Bool("no-reset", false, "Do not send *RST;*CLS before each test")
	stop         = flag.Bool("stop", false, "Stop at the first failing test")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	jsonOut      = flag.Bool("json", false, "Output results as JSON")
	junitOut     = flag.Bool("junit", false, "Output results as JUnit XML")
	protocolLog  = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
)

func main() {
	flag.Parse()

	pattern := ""
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}

	if *target == "" && *simulate == "" {
		fmt.Fprintln(os.Stderr, "Error: a target address (-target) or a simulation (-simulate) is required")
		flag.Usage()
		os.Exit(1)
	}
	if *target != "" && *simulate != "" {
		fmt.Fprintln(os.Stderr, "Error: -target and -simulate are mutually exclusive")
		os.Exit(1)
	}

	outputFormat := "text"
	if *jsonOut {
		outputFormat = "json"
	} else if *junitOut {
		outputFormat = "junit"
	}

	if outputFormat == "text" {
		log.SetFlags(log.Ltime)
		if *verbose {
			log.SetFlags(log.Ltime | log.Lmicroseconds)
		}
		printBanner()
		if *simulate != "" {
			log.Printf("Simulation: %s", *simulate)
		} else {
			log.Printf("Target: %s", *target)
		}
		if pattern != "" {
			log.Printf("Pattern: %s", pattern)
		}
		log.Println()
	}

	var protocolLogger *scpilog.FileLogger
	if *protocolLog != "" {
		var err error
		protocolLogger, err = scpilog.NewFileLogger(*protocolLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create protocol logger: %v\n", err)
			os.Exit(1)
		}
		if outputFormat == "text" {
			log.Printf("Protocol logging to: %s", *protocolLog)
		}
	}

	config := &runner.Config{
		Target:             *target,
		Simulate:           *simulate,
		TestDir:            *tests,
		Pattern:            pattern,
		Files:              *files,
		Tags:               *tags,
		ExcludeTags:        *excludeTags,
		Timeout:            *timeout,
		QueryTimeout:       *queryTimeout,
		NoReset:            *noReset,
		StopOnFirstFailure: *stop,
		Verbose:            *verbose,
		Output:             os.Stdout,
		OutputFormat:       outputFormat,
	}
	// Only set logger when non-nil to avoid typed-nil interface issue.
	if protocolLogger != nil {
		config.ProtocolLogger = protocolLogger
	}

	r := runner.New(config)
	shutdown := func() {
		r.Close()
		if protocolLogger != nil {
			protocolLogger.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 10*time.Minute)
	defer cancelTimeout()

	result, err := r.Run(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if result.FailCount > 0 {
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(`
 ____   ____ ____ ___   _____         _
/ ___| / ___|  _ \_ _| |_   _|__  ___| |_
\___ \| |   | |_) | |    | |/ _ \/ __| __|
 ___) | |___|  __/| |    | |  __/\__ \ |_
|____/ \____|_|  |___|   |_|\___||___/\__|

SCPI Conformance Test Runner
`)
}
