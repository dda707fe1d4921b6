package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
)

// TestEngineBasic tests basic engine functionality.
func TestEngineBasic(t *testing.T) {
	e := engine.New()

	e.RegisterHandler("query", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return map[string]interface{}{
			"response": "BUS",
		}, nil
	})

	tc := &loader.TestCase{
		ID:   "TC-001",
		Name: "Basic Test",
		Steps: []loader.Step{
			{
				Action: "query",
				Expect: map[string]interface{}{
					"response": "BUS",
				},
			},
		},
	}

	result := e.Run(context.Background(), tc)

	if !result.Passed {
		t.Errorf("Test should pass, error: %v", result.Error)
	}
	if len(result.StepResults) != 1 {
		t.Errorf("Expected 1 step result, got %d", len(result.StepResults))
	}
}

// TestEngineStepsShareOutputs tests that later steps see earlier outputs.
func TestEngineStepsShareOutputs(t *testing.T) {
	e := engine.New()

	var seen []string
	e.RegisterHandler("send", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		params := engine.InterpolateParams(step.Params, state)
		seen = append(seen, params["line"].(string))
		return map[string]interface{}{"value": 12.5}, nil
	})

	tc := &loader.TestCase{
		ID: "TC-002",
		Steps: []loader.Step{
			{Action: "send", Params: map[string]interface{}{"line": "VOLT 12.5"}},
			{Action: "send", Params: map[string]interface{}{"line": "VOLT:TRIG {{ value }}"}},
		},
	}

	result := e.Run(context.Background(), tc)
	if !result.Passed {
		t.Fatalf("Test should pass, error: %v", result.Error)
	}
	if len(seen) != 2 || seen[1] != "VOLT:TRIG 12.5" {
		t.Errorf("Unexpected lines: %v", seen)
	}
}

// TestEngineFailureStopsTest tests that a failing step stops the test.
func TestEngineFailureStopsTest(t *testing.T) {
	e := engine.New()

	calls := 0
	e.RegisterHandler("send", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		calls++
		return nil, errors.New("connection lost")
	})

	tc := &loader.TestCase{
		ID: "TC-003",
		Steps: []loader.Step{
			{Action: "send"},
			{Action: "send"},
		},
	}

	result := e.Run(context.Background(), tc)
	if result.Passed {
		t.Error("Test should fail")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if result.Error == nil || !strings.Contains(result.Error.Error(), "connection lost") {
		t.Errorf("Unexpected error: %v", result.Error)
	}
}

// TestEngineExpectationFailure tests failed expectations.
func TestEngineExpectationFailure(t *testing.T) {
	e := engine.New()
	e.RegisterHandler("errors", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return map[string]interface{}{"error_code": -211}, nil
	})

	tc := &loader.TestCase{
		ID: "TC-004",
		Steps: []loader.Step{
			{Action: "errors", Expect: map[string]interface{}{"error_code": 0}},
		},
	}

	result := e.Run(context.Background(), tc)
	if result.Passed {
		t.Fatal("Test should fail")
	}
	er := result.StepResults[0].ExpectResults["error_code"]
	if er == nil || er.Passed {
		t.Fatalf("Expected failed error_code expectation, got %+v", er)
	}
	if er.Message != "expected 0, got -211" {
		t.Errorf("Unexpected message: %s", er.Message)
	}
}

// TestEngineNumericEquality tests that YAML integers match float outputs.
func TestEngineNumericEquality(t *testing.T) {
	e := engine.New()
	e.RegisterHandler("query", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return map[string]interface{}{"value": float64(5)}, nil
	})

	result := e.Run(context.Background(), &loader.TestCase{
		ID:    "TC-005",
		Steps: []loader.Step{{Action: "query", Expect: map[string]interface{}{"value": 5}}},
	})
	if !result.Passed {
		t.Errorf("Test should pass, error: %v", result.Error)
	}
}

// TestEngineUnknownAction tests unknown action handling.
func TestEngineUnknownAction(t *testing.T) {
	e := engine.New()

	result := e.Run(context.Background(), &loader.TestCase{
		ID:    "TC-006",
		Steps: []loader.Step{{Action: "does_not_exist"}},
	})
	if result.Passed {
		t.Error("Test should fail")
	}
	if result.Error == nil || !strings.Contains(result.Error.Error(), "unknown action") {
		t.Errorf("Unexpected error: %v", result.Error)
	}
}

// TestEngineSkip tests explicit skips and unmet requirements.
func TestEngineSkip(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Capabilities = loader.NewCapabilities("DMM", []string{"*TRG/nquery/"})
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("send", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return nil, nil
	})

	explicit := e.Run(context.Background(), &loader.TestCase{
		ID: "TC-007", Skip: true, Steps: []loader.Step{{Action: "send"}},
	})
	if !explicit.Skipped || explicit.SkipReason != "skipped by test definition" {
		t.Errorf("Unexpected skip result: %+v", explicit)
	}

	unmet := e.Run(context.Background(), &loader.TestCase{
		ID: "TC-008", Requires: []string{":OUTPut"}, Steps: []loader.Step{{Action: "send"}},
	})
	if !unmet.Skipped || !strings.Contains(unmet.SkipReason, ":OUTPut") {
		t.Errorf("Unexpected skip result: %+v", unmet)
	}
}

// TestEngineSetupTest tests the per-test setup hook.
func TestEngineSetupTest(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.SetupTest = func(ctx context.Context, tc *loader.TestCase, state *engine.ExecutionState) error {
		if tc.ID == "TC-BAD" {
			return errors.New("reset failed")
		}
		state.Set("model", "PSU")
		return nil
	}
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("noop", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return nil, nil
	})

	ok := e.Run(context.Background(), &loader.TestCase{
		ID:    "TC-GOOD",
		Steps: []loader.Step{{Action: "noop", Expect: map[string]interface{}{"model": "PSU"}}},
	})
	if !ok.Passed {
		t.Errorf("Test should pass, error: %v", ok.Error)
	}

	bad := e.Run(context.Background(), &loader.TestCase{
		ID:    "TC-BAD",
		Steps: []loader.Step{{Action: "noop"}},
	})
	if bad.Passed || bad.Error == nil || !strings.Contains(bad.Error.Error(), "reset failed") {
		t.Errorf("Unexpected result: %+v", bad)
	}
}

// TestEngineStepTimeout tests that a blocking handler sees its deadline.
func TestEngineStepTimeout(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.StepTimeout = 20 * time.Millisecond
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("block", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	result := e.Run(context.Background(), &loader.TestCase{
		ID:    "TC-009",
		Steps: []loader.Step{{Action: "block"}},
	})
	if result.Passed || !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", result.Error)
	}
}

// TestEngineRunSuite tests suite execution and counting.
func TestEngineRunSuite(t *testing.T) {
	var completed []string
	cfg := engine.DefaultConfig()
	cfg.OnTestComplete = func(r *engine.TestResult) {
		completed = append(completed, r.TestCase.ID)
	}
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("pass", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return nil, nil
	})
	e.RegisterHandler("fail", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]interface{}, error) {
		return nil, errors.New("boom")
	})

	cases := []*loader.TestCase{
		{ID: "A", Steps: []loader.Step{{Action: "pass"}}},
		{ID: "B", Steps: []loader.Step{{Action: "fail"}}},
		{ID: "C", Skip: true, Steps: []loader.Step{{Action: "pass"}}},
	}

	result := e.RunSuite(context.Background(), cases)
	if result.PassCount != 1 || result.FailCount != 1 || result.SkipCount != 1 {
		t.Errorf("Unexpected counts: pass=%d fail=%d skip=%d", result.PassCount, result.FailCount, result.SkipCount)
	}
	if len(completed) != 3 {
		t.Errorf("Expected 3 completions, got %v", completed)
	}

	cfg.StopOnFirstFailure = true
	result = e.RunSuite(context.Background(), cases)
	if len(result.Results) != 2 {
		t.Errorf("Expected stop after failure, got %d results", len(result.Results))
	}
}

// TestStepDuration tests wait duration extraction.
func TestStepDuration(t *testing.T) {
	tests := []struct {
		params map[string]interface{}
		want   time.Duration
	}{
		{nil, 0},
		{map[string]interface{}{"duration_ms": 250}, 250 * time.Millisecond},
		{map[string]interface{}{"duration_seconds": 1.5}, 1500 * time.Millisecond},
		{map[string]interface{}{"duration_seconds": 1, "duration_ms": 2000}, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := engine.StepDuration(tt.params); got != tt.want {
			t.Errorf("StepDuration(%v) = %v, want %v", tt.params, got, tt.want)
		}
	}
}
