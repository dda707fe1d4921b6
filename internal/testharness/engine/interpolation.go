package engine

import (
	"fmt"
	"regexp"
	"strconv"
)

// variablePattern matches {{ variable }} templates.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Interpolate replaces {{ variable }} placeholders in a string with values
// from state. Undefined variables are left unchanged.
func Interpolate(template string, state *ExecutionState) string {
	if state == nil {
		return template
	}

	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		value, exists := state.Outputs[name]
		if !exists {
			return match
		}
		return valueToString(value)
	})
}

// InterpolateParams recursively interpolates all string values in a params
// map and returns a new map. A string that is exactly one "{{ var }}"
// keeps the type of the stored value.
func InterpolateParams(params map[string]interface{}, state *ExecutionState) map[string]interface{} {
	if params == nil {
		return nil
	}

	result := make(map[string]interface{}, len(params))
	for key, value := range params {
		result[key] = interpolateValue(value, state)
	}
	return result
}

// interpolateValue recursively interpolates a single value.
func interpolateValue(value interface{}, state *ExecutionState) interface{} {
	if state == nil {
		return value
	}

	switch v := value.(type) {
	case string:
		if m := variablePattern.FindStringSubmatchIndex(v); m != nil && m[0] == 0 && m[1] == len(v) {
			if stored, ok := state.Outputs[v[m[2]:m[3]]]; ok {
				return stored
			}
			return v
		}
		return Interpolate(v, state)

	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = interpolateValue(val, state)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = interpolateValue(val, state)
		}
		return result

	default:
		return value
	}
}

// valueToString renders a stored value for substitution into a program
// message. Floats use the shortest exact form.
func valueToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
