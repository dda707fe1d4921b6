package engine

import (
	"context"
	"testing"
)

// TestInterpolate tests string interpolation.
func TestInterpolate(t *testing.T) {
	state := NewExecutionState(context.Background())
	state.Set("level", 12.5)
	state.Set("source", "BUS")
	state.Set("count", 3)

	tests := []struct {
		template string
		want     string
	}{
		{"VOLT {{ level }}", "VOLT 12.5"},
		{"TRIG:SOUR {{source}}", "TRIG:SOUR BUS"},
		{"SAMP:COUN {{ count }};:INIT", "SAMP:COUN 3;:INIT"},
		{"VOLT {{ missing }}", "VOLT {{ missing }}"},
		{"*TRG", "*TRG"},
	}

	for _, tt := range tests {
		if got := Interpolate(tt.template, state); got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}

	if got := Interpolate("VOLT {{ level }}", nil); got != "VOLT {{ level }}" {
		t.Errorf("nil state changed template: %q", got)
	}
}

// TestInterpolateParams tests nested interpolation and type preservation.
func TestInterpolateParams(t *testing.T) {
	state := NewExecutionState(context.Background())
	state.Set("level", 12.5)
	state.Set("codes", []int{-211})

	params := map[string]interface{}{
		"line":  "VOLT {{ level }}",
		"exact": "{{ level }}",
		"list":  []interface{}{"{{ codes }}", 1},
		"nested": map[string]interface{}{
			"min": "{{ level }}",
		},
		"plain": 7,
	}

	got := InterpolateParams(params, state)

	if got["line"] != "VOLT 12.5" {
		t.Errorf("line = %v", got["line"])
	}
	if got["exact"] != 12.5 {
		t.Errorf("exact = %v (%T), want float 12.5", got["exact"], got["exact"])
	}
	if codes, ok := got["list"].([]interface{})[0].([]int); !ok || codes[0] != -211 {
		t.Errorf("list = %v", got["list"])
	}
	if got["nested"].(map[string]interface{})["min"] != 12.5 {
		t.Errorf("nested = %v", got["nested"])
	}
	if got["plain"] != 7 {
		t.Errorf("plain = %v", got["plain"])
	}
	if params["line"] != "VOLT {{ level }}" {
		t.Error("input map was modified")
	}
	if InterpolateParams(nil, state) != nil {
		t.Error("nil params should stay nil")
	}
}
