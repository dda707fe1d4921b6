// Package runner executes conformance test cases against a SCPI
// instrument, over a socket or against an in-process simulation.
package runner

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
	"github.com/scpi-protocol/scpi-go/internal/testharness/reporter"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// Config configures the test runner.
type Config struct {
	// Target is the address of the instrument under test (host:port).
	Target string

	// Simulate runs the tests against an in-process example instrument
	// ("psu" or "dmm") instead of Target.
	Simulate string

	// TestDir is the path to test case directory.
	TestDir string

	// Pattern filters test cases by ID or name (comma-separated globs).
	Pattern string

	// Files filters which YAML test files to load (comma-separated glob
	// patterns matched against the file name stem, e.g. "trigger-*").
	Files string

	// Tags includes only tests with at least one of these tags (comma-separated).
	Tags string

	// ExcludeTags excludes tests with any of these tags (comma-separated).
	ExcludeTags string

	// Timeout is the default test timeout.
	Timeout time.Duration

	// SuiteTimeout is the overall test suite timeout (0 = auto-calculate).
	SuiteTimeout time.Duration

	// QueryTimeout bounds a single query over the socket.
	QueryTimeout time.Duration

	// NoReset skips the *RST;*CLS sent before every test.
	NoReset bool

	// StopOnFirstFailure stops the suite at the first failing test.
	StopOnFirstFailure bool

	// Verbose enables verbose output.
	Verbose bool

	// Output is where to write results.
	Output io.Writer

	// OutputFormat is "text", "json", or "junit".
	OutputFormat string

	// ProtocolLogger receives structured protocol events for debugging.
	// Set to nil to disable protocol logging.
	ProtocolLogger log.Logger
}

// Runner executes test cases against an instrument.
type Runner struct {
	config       *Config
	engine       *engine.Engine
	engineConfig *engine.EngineConfig
	reporter     reporter.Reporter
	session      Session
	remote       *inspect.RemoteInspector
	identity     inspect.Identity
}

// New creates a runner. The session is opened by Run.
func New(config *Config) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	engineConfig := engine.DefaultConfig()
	if config.Timeout > 0 {
		engineConfig.DefaultTimeout = config.Timeout
	}
	engineConfig.SuiteTimeout = config.SuiteTimeout
	engineConfig.StopOnFirstFailure = config.StopOnFirstFailure

	r := &Runner{
		config:       config,
		engine:       engine.NewWithConfig(engineConfig),
		engineConfig: engineConfig,
	}

	if !config.NoReset {
		engineConfig.SetupTest = r.resetInstrument
	}

	switch config.OutputFormat {
	case "json":
		r.reporter = reporter.NewJSONReporter(config.Output, false)
	case "junit":
		r.reporter = reporter.NewJUnitReporter(config.Output)
	default:
		r.reporter = reporter.NewTextReporter(config.Output, config.Verbose)
	}

	// Stream each test result as it completes.
	engineConfig.OnTestComplete = func(result *engine.TestResult) {
		r.reporter.ReportTest(result)
	}

	r.registerHandlers()

	return r
}

// Run connects to the instrument, loads the matching test cases and runs
// them. Tests requiring headers the instrument does not advertise are
// skipped.
func (r *Runner) Run(ctx context.Context) (*engine.SuiteResult, error) {
	cases, err := loader.LoadDirectoryWithFilter(r.config.TestDir, r.config.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to load tests: %w", err)
	}

	if r.config.Pattern != "" {
		cases = filterByPattern(cases, r.config.Pattern)
	}
	if r.config.Tags != "" {
		cases = filterByTags(cases, r.config.Tags)
	}
	if r.config.ExcludeTags != "" {
		cases = filterByExcludeTags(cases, r.config.ExcludeTags)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found matching filters (pattern=%q, files=%q, tags=%q, exclude-tags=%q)",
			r.config.Pattern, r.config.Files, r.config.Tags, r.config.ExcludeTags)
	}

	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	result := r.engine.RunSuite(ctx, cases)
	result.SuiteName = fmt.Sprintf("SCPI Conformance Tests (%s)", r.targetName())

	r.reporter.ReportSummary(result)

	return result, nil
}

// connect opens the session and reads the instrument's identity and
// headers for requirement filtering.
func (r *Runner) connect(ctx context.Context) error {
	if r.session == nil {
		session, err := openSession(ctx, r.config)
		if err != nil {
			return err
		}
		r.session = session
	}
	r.remote = inspect.NewRemoteInspector(r.session)

	id, err := r.remote.Identify(ctx)
	if err != nil {
		return fmt.Errorf("identifying instrument: %w", err)
	}
	r.identity = id

	headers, err := r.remote.Headers(ctx)
	if err != nil {
		return fmt.Errorf("reading instrument headers: %w", err)
	}
	r.engineConfig.Capabilities = loader.NewCapabilities(id.Model, headers)

	if r.config.Verbose && r.config.OutputFormat == "text" {
		stdlog.Printf("Instrument: %s (%d headers)", id, len(headers))
	}
	return nil
}

// Identity returns the *IDN? fields read by Run.
func (r *Runner) Identity() inspect.Identity {
	return r.identity
}

func (r *Runner) targetName() string {
	if r.config.Simulate != "" {
		return "simulated " + r.config.Simulate
	}
	return r.config.Target
}

// resetInstrument clears settings and the error queue before a test.
func (r *Runner) resetInstrument(ctx context.Context, _ *loader.TestCase, _ *engine.ExecutionState) error {
	return r.session.Send(ctx, resetLine)
}

// Close releases the session.
func (r *Runner) Close() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

// filterByPattern keeps tests whose ID or name matches one of the
// comma-separated glob patterns.
func filterByPattern(cases []*loader.TestCase, pattern string) []*loader.TestCase {
	patterns := parseTags(pattern)
	if len(patterns) == 0 {
		return cases
	}
	var filtered []*loader.TestCase
	for _, tc := range cases {
		for _, p := range patterns {
			if matchPattern(tc.ID, p) || matchPattern(tc.Name, p) {
				filtered = append(filtered, tc)
				break
			}
		}
	}
	return filtered
}

// filterByTags keeps only tests that have at least one of the specified tags.
func filterByTags(cases []*loader.TestCase, tags string) []*loader.TestCase {
	wanted := parseTags(tags)
	if len(wanted) == 0 {
		return cases
	}
	var filtered []*loader.TestCase
	for _, tc := range cases {
		if hasAnyTag(tc.Tags, wanted) {
			filtered = append(filtered, tc)
		}
	}
	return filtered
}

// filterByExcludeTags removes tests that have any of the specified tags.
func filterByExcludeTags(cases []*loader.TestCase, excludeTags string) []*loader.TestCase {
	excluded := parseTags(excludeTags)
	if len(excluded) == 0 {
		return cases
	}
	var filtered []*loader.TestCase
	for _, tc := range cases {
		if !hasAnyTag(tc.Tags, excluded) {
			filtered = append(filtered, tc)
		}
	}
	return filtered
}

// parseTags splits a comma-separated string into trimmed non-empty parts.
func parseTags(tags string) []string {
	var result []string
	for _, p := range strings.Split(tags, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func hasAnyTag(testTags, wanted []string) bool {
	for _, t := range testTags {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}

// matchPattern performs glob matching; a pattern without wildcards must
// match exactly.
func matchPattern(name, pattern string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
