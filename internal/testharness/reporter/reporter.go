// Package reporter provides test result formatting and output.
package reporter

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
)

// Reporter formats and outputs test results.
type Reporter interface {
	// ReportTest reports results for a single test as it completes.
	ReportTest(result *engine.TestResult)

	// ReportSummary reports the suite totals after all tests ran.
	ReportSummary(result *engine.SuiteResult)

	// ReportSuite reports a complete suite: every test, then the summary.
	ReportSuite(result *engine.SuiteResult)
}

func status(result *engine.TestResult) string {
	switch {
	case result.Skipped:
		return "skipped"
	case result.Passed:
		return "passed"
	default:
		return "failed"
	}
}

func passRate(result *engine.SuiteResult) float64 {
	total := result.PassCount + result.FailCount
	if total == 0 {
		return 0
	}
	return float64(result.PassCount) / float64(total) * 100
}

// stepLabel names a step by its action and program message.
func stepLabel(sr *engine.StepResult) string {
	if line, ok := sr.Step.Params["line"]; ok {
		return fmt.Sprintf("%s %v", sr.Step.Action, line)
	}
	return sr.Step.Action
}

func sortedKeys(m map[string]*engine.ExpectResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TextReporter outputs human-readable text reports.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{
		writer:  w,
		verbose: verbose,
	}
}

// ReportSuite reports suite results in text format.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "\n=== Suite: %s ===\n\n", result.SuiteName)
	for _, tr := range result.Results {
		r.ReportTest(tr)
	}
	r.ReportSummary(result)
}

// ReportSummary prints the suite totals.
func (r *TextReporter) ReportSummary(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "\n--- Summary: %s ---\n", result.SuiteName)
	fmt.Fprintf(r.writer, "Total:   %d\n", len(result.Results))
	fmt.Fprintf(r.writer, "Passed:  %d\n", result.PassCount)
	fmt.Fprintf(r.writer, "Failed:  %d\n", result.FailCount)
	fmt.Fprintf(r.writer, "Skipped: %d\n", result.SkipCount)
	if result.PassCount+result.FailCount > 0 {
		fmt.Fprintf(r.writer, "Pass Rate: %.1f%%\n", passRate(result))
	}
	fmt.Fprintf(r.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
}

// ReportTest reports a single test result in text format.
func (r *TextReporter) ReportTest(result *engine.TestResult) {
	tc := result.TestCase

	label := map[string]string{"skipped": "SKIP", "passed": "PASS", "failed": "FAIL"}[status(result)]
	fmt.Fprintf(r.writer, "[%s] %s - %s (%s)\n",
		label, tc.ID, tc.Name, result.Duration.Round(time.Millisecond))

	if result.Skipped && result.SkipReason != "" {
		fmt.Fprintf(r.writer, "       Skip reason: %s\n", result.SkipReason)
	}
	if !result.Passed && result.Error != nil {
		fmt.Fprintf(r.writer, "       Error: %v\n", result.Error)
	}

	if !r.verbose {
		return
	}
	for _, sr := range result.StepResults {
		stepStatus := "PASS"
		if !sr.Passed {
			stepStatus = "FAIL"
		}
		fmt.Fprintf(r.writer, "    [%s] Step %d: %s (%s)\n",
			stepStatus, sr.StepIndex+1, stepLabel(sr), sr.Duration.Round(time.Millisecond))

		if resp, ok := sr.Output[engine.KeyResponse]; ok {
			fmt.Fprintf(r.writer, "           -> %v\n", resp)
		}
		if !sr.Passed && sr.Error != nil {
			fmt.Fprintf(r.writer, "           Error: %v\n", sr.Error)
		}
		for _, key := range sortedKeys(sr.ExpectResults) {
			er := sr.ExpectResults[key]
			expStatus := "OK"
			if !er.Passed {
				expStatus = "FAILED"
			}
			fmt.Fprintf(r.writer, "           [%s] %s: %s\n", expStatus, key, er.Message)
		}
	}
}

// JSONReporter outputs JSON-formatted reports.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: w,
		pretty: pretty,
	}
}

// JSONSuiteResult is the JSON representation of suite results.
type JSONSuiteResult struct {
	SuiteName string           `json:"suite_name"`
	Duration  string           `json:"duration"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	PassRate  float64          `json:"pass_rate"`
	Tests     []JSONTestResult `json:"tests,omitempty"`
}

// JSONTestResult is the JSON representation of a test result.
type JSONTestResult struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	Duration   string           `json:"duration"`
	Error      string           `json:"error,omitempty"`
	SkipReason string           `json:"skip_reason,omitempty"`
	Steps      []JSONStepResult `json:"steps,omitempty"`
}

// JSONStepResult is the JSON representation of a step result.
type JSONStepResult struct {
	Index    int                   `json:"index"`
	Action   string                `json:"action"`
	Line     string                `json:"line,omitempty"`
	Status   string                `json:"status"`
	Duration string                `json:"duration"`
	Error    string                `json:"error,omitempty"`
	Expects  map[string]JSONExpect `json:"expects,omitempty"`
	Outputs  map[string]any        `json:"outputs,omitempty"`
}

// JSONExpect is the JSON representation of an expectation result.
type JSONExpect struct {
	Passed   bool   `json:"passed"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Message  string `json:"message"`
}

func (r *JSONReporter) summary(result *engine.SuiteResult) JSONSuiteResult {
	return JSONSuiteResult{
		SuiteName: result.SuiteName,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Total:     len(result.Results),
		Passed:    result.PassCount,
		Failed:    result.FailCount,
		Skipped:   result.SkipCount,
		PassRate:  passRate(result),
	}
}

// ReportSuite reports suite results as one JSON document.
func (r *JSONReporter) ReportSuite(result *engine.SuiteResult) {
	jr := r.summary(result)
	jr.Tests = make([]JSONTestResult, 0, len(result.Results))
	for _, tr := range result.Results {
		jr.Tests = append(jr.Tests, r.testToJSON(tr))
	}
	r.writeJSON(jr)
}

// ReportSummary writes the suite totals without the tests.
func (r *JSONReporter) ReportSummary(result *engine.SuiteResult) {
	r.writeJSON(r.summary(result))
}

// ReportTest reports a single test result in JSON format.
func (r *JSONReporter) ReportTest(result *engine.TestResult) {
	r.writeJSON(r.testToJSON(result))
}

func (r *JSONReporter) testToJSON(result *engine.TestResult) JSONTestResult {
	tc := result.TestCase
	jr := JSONTestResult{
		ID:         tc.ID,
		Name:       tc.Name,
		Status:     status(result),
		Duration:   result.Duration.Round(time.Millisecond).String(),
		SkipReason: result.SkipReason,
	}
	if result.Error != nil {
		jr.Error = result.Error.Error()
	}

	for _, sr := range result.StepResults {
		stepStatus := "passed"
		if !sr.Passed {
			stepStatus = "failed"
		}

		jsr := JSONStepResult{
			Index:    sr.StepIndex,
			Action:   sr.Step.Action,
			Status:   stepStatus,
			Duration: sr.Duration.Round(time.Millisecond).String(),
			Outputs:  sr.Output,
		}
		if line, ok := sr.Step.Params["line"]; ok {
			jsr.Line = fmt.Sprintf("%v", line)
		}
		if sr.Error != nil {
			jsr.Error = sr.Error.Error()
		}
		if len(sr.ExpectResults) > 0 {
			jsr.Expects = make(map[string]JSONExpect, len(sr.ExpectResults))
			for key, er := range sr.ExpectResults {
				jsr.Expects[key] = JSONExpect{
					Passed:   er.Passed,
					Expected: er.Expected,
					Actual:   er.Actual,
					Message:  er.Message,
				}
			}
		}

		jr.Steps = append(jr.Steps, jsr)
	}

	return jr
}

func (r *JSONReporter) writeJSON(v any) {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(r.writer, "{\"error\": %q}\n", "failed to marshal: "+err.Error())
		return
	}

	fmt.Fprintln(r.writer, string(data))
}

// JUnitReporter outputs JUnit XML format for CI integration. Only the
// complete suite is written; per-test reports are collected until then.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a new JUnit reporter.
func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Time     string      `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Detail  string `xml:",cdata"`
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// ReportSuite reports suite results in JUnit XML format.
func (r *JUnitReporter) ReportSuite(result *engine.SuiteResult) {
	suite := junitSuite{
		Name:     result.SuiteName,
		Tests:    len(result.Results),
		Failures: result.FailCount,
		Skipped:  result.SkipCount,
		Time:     seconds(result.Duration),
	}

	for _, tr := range result.Results {
		tc := junitCase{
			Name:      tr.TestCase.Name,
			ClassName: tr.TestCase.ID,
			Time:      seconds(tr.Duration),
		}
		switch {
		case tr.Skipped:
			tc.Skipped = &junitSkipped{Message: tr.SkipReason}
		case !tr.Passed:
			f := &junitFailure{Message: "test failed"}
			if tr.Error != nil {
				f.Message = tr.Error.Error()
			}
			for _, sr := range tr.StepResults {
				if !sr.Passed {
					f.Detail += fmt.Sprintf("Step %d (%s): %v\n", sr.StepIndex+1, stepLabel(sr), sr.Error)
				}
			}
			tc.Failure = f
		}
		suite.Cases = append(suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		fmt.Fprintf(r.writer, "<!-- failed to marshal: %v -->\n", err)
		return
	}
	fmt.Fprintf(r.writer, "%s%s\n", xml.Header, data)
}

// ReportSummary writes the complete suite.
func (r *JUnitReporter) ReportSummary(result *engine.SuiteResult) {
	r.ReportSuite(result)
}

// ReportTest writes nothing; JUnit needs the whole suite in one document.
func (r *JUnitReporter) ReportTest(*engine.TestResult) {}
