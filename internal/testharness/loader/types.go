// Package loader provides YAML test case loading for the SCPI test harness.
package loader

import (
	"fmt"
	"strings"
)

// TestCase represents a single test case loaded from YAML.
type TestCase struct {
	// ID is the unique test case identifier (e.g., "TC-TRG-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the test.
	Name string `yaml:"name"`

	// Description explains what the test validates.
	Description string `yaml:"description"`

	// Requires lists program headers the instrument must implement for the
	// test to run, e.g. "*TRG" or ":TRIGger:SOURce".
	Requires []string `yaml:"requires,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Timeout is the maximum duration for the test (e.g., "30s").
	Timeout string `yaml:"timeout,omitempty"`

	// Tags for categorizing tests.
	Tags []string `yaml:"tags,omitempty"`

	// Skip disables the test.
	Skip bool `yaml:"skip,omitempty"`

	// SkipReason is reported for skipped tests.
	SkipReason string `yaml:"skip_reason,omitempty"`
}

// Step represents a single action in a test case.
type Step struct {
	// Action is the action to perform (e.g., "send", "query", "errors").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]interface{} `yaml:"params,omitempty"`

	// Expect defines expected outcomes after the action.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Timeout overrides the test-level timeout for this step.
	Timeout string `yaml:"timeout,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// Capabilities describes what the instrument under test implements. It is
// built from the SYSTem:HELP:HEADers? response.
type Capabilities struct {
	// Model is the *IDN? model field.
	Model string

	headers map[string]bool
}

// NewCapabilities indexes SYSTem:HELP:HEADers? lines.
func NewCapabilities(model string, headerLines []string) *Capabilities {
	c := &Capabilities{Model: model, headers: make(map[string]bool, len(headerLines))}
	for _, h := range headerLines {
		c.headers[normalizeHeader(h)] = true
	}
	return c
}

// Supports reports whether header names an implemented leaf or a branch
// above one. Optional nodes are part of the advertised form, so
// ":SOURce:VOLTage" matches "[:SOURce]:VOLTage[:LEVel]".
func (c *Capabilities) Supports(header string) bool {
	want := normalizeHeader(header)
	if want == "" {
		return false
	}
	if c.headers[want] {
		return true
	}
	for h := range c.headers {
		if strings.HasPrefix(h, want+":") {
			return true
		}
	}
	return false
}

// Len returns the number of indexed headers.
func (c *Capabilities) Len() int {
	return len(c.headers)
}

// normalizeHeader reduces a header line to upper case without mode
// markers, the query suffix, optional brackets and suffix markers. Subsystem
// headers get a leading colon.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	if i := strings.IndexByte(h, '/'); i >= 0 {
		h = h[:i]
	}
	h = strings.TrimSuffix(h, "?")
	h = strings.NewReplacer("[", "", "]", "", "#", "").Replace(h)
	h = strings.ToUpper(h)
	if h != "" && h[0] != '*' && h[0] != ':' {
		h = ":" + h
	}
	return h
}

// LoadError provides details about a test case loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
