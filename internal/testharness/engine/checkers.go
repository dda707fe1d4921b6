package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// registerCheckers installs the built-in expectation checkers.
func registerCheckers(e *Engine) {
	e.RegisterChecker(CheckerNameValueGreaterThan, CheckerValueGreaterThan)
	e.RegisterChecker(CheckerNameValueLessThan, CheckerValueLessThan)
	e.RegisterChecker(CheckerNameValueInRange, CheckerValueInRange)
	e.RegisterChecker(CheckerNameValueApprox, CheckerValueApprox)
	e.RegisterChecker(CheckerNameResponseMatches, CheckerResponseMatches)
	e.RegisterChecker(CheckerNameResponseContains, CheckerResponseContains)
	e.RegisterChecker(CheckerNameErrorCodesContain, CheckerErrorCodesContain)
	e.RegisterChecker(CheckerNameErrorMessageContains, CheckerErrorMessageContains)
	e.RegisterChecker(CheckerNameValueCount, CheckerValueCount)
	e.RegisterChecker(CheckerNameSaveAs, CheckerSaveAs)
	e.RegisterChecker(CheckerNameValueEqualsSaved, CheckerValueEqualsSaved)
}

// ToFloat64 converts various numeric types to float64 for comparison.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

func missing(key, output string, expected interface{}) *ExpectResult {
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Passed:   false,
		Message:  fmt.Sprintf("output key %q not found", output),
	}
}

// numericValue returns the "value" output and the expected number.
func numericValue(key string, expected interface{}, state *ExecutionState) (float64, float64, *ExpectResult) {
	actual, exists := state.Get(KeyValue)
	if !exists {
		return 0, 0, missing(key, KeyValue, expected)
	}
	actualNum, ok1 := ToFloat64(actual)
	expectedNum, ok2 := ToFloat64(expected)
	if !ok1 || !ok2 {
		return 0, 0, &ExpectResult{
			Key:      key,
			Expected: expected,
			Actual:   actual,
			Passed:   false,
			Message:  fmt.Sprintf("cannot compare non-numeric values: %T and %T", actual, expected),
		}
	}
	return actualNum, expectedNum, nil
}

// CheckerValueGreaterThan checks if the "value" output is greater than expected.
func CheckerValueGreaterThan(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, want, fail := numericValue(key, expected, state)
	if fail != nil {
		return fail
	}
	passed := actual > want
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%v > %v = %v", actual, want, passed),
	}
}

// CheckerValueLessThan checks if the "value" output is less than expected.
func CheckerValueLessThan(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, want, fail := numericValue(key, expected, state)
	if fail != nil {
		return fail
	}
	passed := actual < want
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%v < %v = %v", actual, want, passed),
	}
}

// CheckerValueInRange checks that "value" lies within {min, max}, both
// inclusive.
func CheckerValueInRange(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	bounds, ok := expected.(map[string]interface{})
	if !ok {
		return &ExpectResult{Key: key, Expected: expected, Message: "expected {min, max}"}
	}
	actual, exists := state.Get(KeyValue)
	if !exists {
		return missing(key, KeyValue, expected)
	}
	v, ok1 := ToFloat64(actual)
	lo, ok2 := ToFloat64(bounds["min"])
	hi, ok3 := ToFloat64(bounds["max"])
	if !ok1 || !ok2 || !ok3 {
		return &ExpectResult{
			Key: key, Expected: expected, Actual: actual,
			Message: "value_in_range needs numeric value, min and max",
		}
	}
	passed := v >= lo && v <= hi
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%v in [%v, %v] = %v", v, lo, hi, passed),
	}
}

// CheckerValueApprox checks that "value" equals {value, tolerance}, or a
// plain number within a relative tolerance of 1e-6.
func CheckerValueApprox(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	target := expected
	tolerance := 0.0
	if m, ok := expected.(map[string]interface{}); ok {
		target = m["value"]
		tolerance, _ = ToFloat64(m["tolerance"])
	}
	actual, want, fail := numericValue(key, target, state)
	if fail != nil {
		fail.Expected = expected
		return fail
	}
	if tolerance == 0 {
		tolerance = math.Abs(want) * 1e-6
	}
	passed := math.Abs(actual-want) <= tolerance
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("|%v - %v| <= %v = %v", actual, want, tolerance, passed),
	}
}

// CheckerResponseMatches matches the "response" output against a regular
// expression.
func CheckerResponseMatches(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(KeyResponse)
	if !exists {
		return missing(key, KeyResponse, expected)
	}
	pattern := fmt.Sprintf("%v", expected)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &ExpectResult{
			Key: key, Expected: expected, Actual: actual,
			Message: fmt.Sprintf("invalid pattern: %v", err),
		}
	}
	passed := re.MatchString(fmt.Sprintf("%v", actual))
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%q =~ /%s/ = %v", actual, pattern, passed),
	}
}

// CheckerResponseContains checks that the "response" output contains the
// expected text.
func CheckerResponseContains(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(KeyResponse)
	if !exists {
		return missing(key, KeyResponse, expected)
	}
	want := fmt.Sprintf("%v", expected)
	passed := strings.Contains(fmt.Sprintf("%v", actual), want)
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("response contains %q = %v", want, passed),
	}
}

// CheckerErrorCodesContain checks that the drained error queue held the
// expected code (or every code of an expected list).
func CheckerErrorCodesContain(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(KeyErrorCodes)
	if !exists {
		return missing(key, KeyErrorCodes, expected)
	}
	codes, _ := actual.([]int)

	want := []interface{}{expected}
	if list, ok := expected.([]interface{}); ok {
		want = list
	}
	for _, w := range want {
		n, ok := ToFloat64(w)
		if !ok {
			return &ExpectResult{
				Key: key, Expected: expected, Actual: actual,
				Message: fmt.Sprintf("error code %v is not a number", w),
			}
		}
		if !containsCode(codes, int(n)) {
			return &ExpectResult{
				Key:      key,
				Expected: expected,
				Actual:   actual,
				Passed:   false,
				Message:  fmt.Sprintf("error %d not reported (got %v)", int(n), codes),
			}
		}
	}
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   true,
		Message:  fmt.Sprintf("errors %v reported", codes),
	}
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// CheckerErrorMessageContains checks that a drained error description
// contains the expected text, case-insensitively.
func CheckerErrorMessageContains(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(KeyErrorMessages)
	if !exists {
		return missing(key, KeyErrorMessages, expected)
	}
	msgs, _ := actual.([]string)
	want := strings.ToLower(fmt.Sprintf("%v", expected))
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m), want) {
			return &ExpectResult{
				Key: key, Expected: expected, Actual: actual, Passed: true,
				Message: fmt.Sprintf("%q reported", m),
			}
		}
	}
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   false,
		Message:  fmt.Sprintf("no error mentions %q (got %v)", expected, msgs),
	}
}

// CheckerValueCount checks the number of values in the response.
func CheckerValueCount(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(KeyValues)
	if !exists {
		return missing(key, KeyValues, expected)
	}
	values, _ := actual.([]string)
	want, ok := ToFloat64(expected)
	passed := ok && len(values) == int(want)
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   len(values),
		Passed:   passed,
		Message:  fmt.Sprintf("expected %v values, got %d", expected, len(values)),
	}
}

// CheckerSaveAs stores the "value" output (or "response" when there is no
// value) under the given name for later steps. It always passes when there
// is something to save.
func CheckerSaveAs(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	name, ok := expected.(string)
	if !ok || name == "" {
		return &ExpectResult{Key: key, Expected: expected, Message: "save_as needs a name"}
	}
	v, exists := state.Get(KeyValue)
	if !exists {
		v, exists = state.Get(KeyResponse)
	}
	if !exists {
		return missing(key, KeyResponse, expected)
	}
	state.Set(name, v)
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   v,
		Passed:   true,
		Message:  fmt.Sprintf("saved %v as %s", v, name),
	}
}

// CheckerValueEqualsSaved compares "value" with a value stored by save_as.
func CheckerValueEqualsSaved(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	name := fmt.Sprintf("%v", expected)
	saved, ok := state.Get(name)
	if !ok {
		return &ExpectResult{Key: key, Expected: expected, Message: fmt.Sprintf("nothing saved as %q", name)}
	}
	actual, exists := state.Get(KeyValue)
	if !exists {
		return missing(key, KeyValue, expected)
	}
	passed := equalValues(saved, actual)
	return &ExpectResult{
		Key:      key,
		Expected: saved,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("expected %v (%s), got %v", saved, name, actual),
	}
}
