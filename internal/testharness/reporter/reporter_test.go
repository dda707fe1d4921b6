package reporter_test

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
	"github.com/scpi-protocol/scpi-go/internal/testharness/reporter"
)

func createTestResult(id, name string, passed, skipped bool, err error) *engine.TestResult {
	return &engine.TestResult{
		TestCase: &loader.TestCase{
			ID:   id,
			Name: name,
		},
		Passed:     passed,
		Skipped:    skipped,
		Error:      err,
		SkipReason: "instrument does not implement *TRG",
		Duration:   100 * time.Millisecond,
		StepResults: []*engine.StepResult{
			{
				Step: &loader.Step{
					Action: "query",
					Params: map[string]interface{}{"line": "TRIG:SOUR?"},
				},
				StepIndex: 0,
				Passed:    passed,
				Error:     err,
				Duration:  50 * time.Millisecond,
				ExpectResults: map[string]*engine.ExpectResult{
					"response": {
						Key:      "response",
						Expected: "BUS",
						Actual:   "BUS",
						Passed:   passed,
						Message:  "response = BUS",
					},
				},
				Output: map[string]any{"response": "BUS"},
			},
		},
	}
}

func createSuiteResult() *engine.SuiteResult {
	return &engine.SuiteResult{
		SuiteName: "Test Suite",
		Results: []*engine.TestResult{
			createTestResult("TC-001", "Test 1", true, false, nil),
			createTestResult("TC-002", "Test 2 <bus>", false, false, errors.New("expected BUS, got IMM")),
			createTestResult("TC-003", "Test 3", false, true, nil),
		},
		PassCount: 1,
		FailCount: 1,
		SkipCount: 1,
		Duration:  500 * time.Millisecond,
	}
}

// TestTextReporterSuite tests the text suite report.
func TestTextReporterSuite(t *testing.T) {
	var buf bytes.Buffer
	reporter.NewTextReporter(&buf, false).ReportSuite(createSuiteResult())
	out := buf.String()

	for _, want := range []string{
		"=== Suite: Test Suite ===",
		"[PASS] TC-001 - Test 1 (100ms)",
		"[FAIL] TC-002 - Test 2 <bus> (100ms)",
		"Error: expected BUS, got IMM",
		"[SKIP] TC-003 - Test 3",
		"Skip reason: instrument does not implement *TRG",
		"Total:   3",
		"Pass Rate: 50.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Step 1") {
		t.Error("Non-verbose output should not show steps")
	}
}

// TestTextReporterVerbose tests step details in verbose mode.
func TestTextReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	reporter.NewTextReporter(&buf, true).ReportTest(createTestResult("TC-001", "Test 1", true, false, nil))
	out := buf.String()

	for _, want := range []string{
		"[PASS] Step 1: query TRIG:SOUR? (50ms)",
		"-> BUS",
		"[OK] response: response = BUS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

// TestJSONReporterSuite tests the JSON suite document.
func TestJSONReporterSuite(t *testing.T) {
	var buf bytes.Buffer
	reporter.NewJSONReporter(&buf, true).ReportSuite(createSuiteResult())

	var got reporter.JSONSuiteResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Total != 3 || got.Passed != 1 || got.Failed != 1 || got.Skipped != 1 {
		t.Errorf("Unexpected totals: %+v", got)
	}
	if got.PassRate != 50 {
		t.Errorf("Pass rate = %v, want 50", got.PassRate)
	}
	if len(got.Tests) != 3 {
		t.Fatalf("Expected 3 tests, got %d", len(got.Tests))
	}
	failed := got.Tests[1]
	if failed.Status != "failed" || failed.Error != "expected BUS, got IMM" {
		t.Errorf("Unexpected failed test: %+v", failed)
	}
	if failed.Steps[0].Line != "TRIG:SOUR?" || failed.Steps[0].Action != "query" {
		t.Errorf("Unexpected step: %+v", failed.Steps[0])
	}
	if got.Tests[2].Status != "skipped" {
		t.Errorf("Unexpected status: %s", got.Tests[2].Status)
	}
}

// TestJSONReporterStreaming tests per-test lines followed by a summary.
func TestJSONReporterStreaming(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJSONReporter(&buf, false)
	suite := createSuiteResult()
	for _, tr := range suite.Results {
		r.ReportTest(tr)
	}
	r.ReportSummary(suite)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 JSON lines, got %d", len(lines))
	}
	var summary reporter.JSONSuiteResult
	if err := json.Unmarshal([]byte(lines[3]), &summary); err != nil {
		t.Fatalf("Invalid summary: %v", err)
	}
	if summary.Total != 3 || len(summary.Tests) != 0 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

// TestJUnitReporter tests the JUnit XML document.
func TestJUnitReporter(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.NewJUnitReporter(&buf)
	r.ReportTest(createTestResult("TC-001", "Test 1", true, false, nil))
	if buf.Len() != 0 {
		t.Fatal("JUnit should not write per test")
	}
	r.ReportSummary(createSuiteResult())

	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("Missing XML header:\n%s", out)
	}

	var suite struct {
		Name     string `xml:"name,attr"`
		Tests    int    `xml:"tests,attr"`
		Failures int    `xml:"failures,attr"`
		Skipped  int    `xml:"skipped,attr"`
		Cases    []struct {
			Name    string `xml:"name,attr"`
			Failure *struct {
				Message string `xml:"message,attr"`
				Detail  string `xml:",chardata"`
			} `xml:"failure"`
			Skipped *struct{} `xml:"skipped"`
		} `xml:"testcase"`
	}
	if err := xml.Unmarshal(buf.Bytes(), &suite); err != nil {
		t.Fatalf("Invalid XML: %v\n%s", err, out)
	}
	if suite.Tests != 3 || suite.Failures != 1 || suite.Skipped != 1 {
		t.Errorf("Unexpected totals: %+v", suite)
	}
	if suite.Cases[1].Name != "Test 2 <bus>" {
		t.Errorf("Name not round-tripped: %q", suite.Cases[1].Name)
	}
	if suite.Cases[1].Failure == nil || !strings.Contains(suite.Cases[1].Failure.Detail, "Step 1 (query TRIG:SOUR?)") {
		t.Errorf("Unexpected failure: %+v", suite.Cases[1].Failure)
	}
	if suite.Cases[2].Skipped == nil {
		t.Error("Expected skipped element")
	}
}
