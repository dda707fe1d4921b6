package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
)

// Engine executes test cases.
type Engine struct {
	config   *EngineConfig
	handlers map[string]ActionHandler
	checkers map[string]ExpectChecker
	mu       sync.RWMutex
}

// New creates a new test engine with default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new test engine with the given configuration.
func NewWithConfig(config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		config:   config,
		handlers: make(map[string]ActionHandler),
		checkers: make(map[string]ExpectChecker),
	}

	e.RegisterChecker(CheckerNameDefault, defaultChecker)
	registerCheckers(e)

	return e
}

// RegisterHandler registers an action handler.
func (e *Engine) RegisterHandler(action string, handler ActionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[action] = handler
}

// RegisterChecker registers an expectation checker.
func (e *Engine) RegisterChecker(key string, checker ExpectChecker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkers[key] = checker
}

// Run executes a single test case.
func (e *Engine) Run(ctx context.Context, tc *loader.TestCase) *TestResult {
	result := &TestResult{
		TestCase:  tc,
		StartTime: time.Now(),
	}
	finish := func() *TestResult {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	if tc.Skip {
		result.Skipped = true
		result.SkipReason = tc.SkipReason
		if result.SkipReason == "" {
			result.SkipReason = "skipped by test definition"
		}
		return finish()
	}

	if e.config.Capabilities != nil {
		if missing, ok := loader.CheckRequirements(e.config.Capabilities, tc.Requires); !ok {
			result.Skipped = true
			result.SkipReason = fmt.Sprintf("instrument does not implement %s", missing)
			return finish()
		}
	}

	timeout := e.config.DefaultTimeout
	if tc.Timeout != "" {
		if d, err := time.ParseDuration(tc.Timeout); err == nil {
			timeout = d
		}
	}

	testCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := NewExecutionState(testCtx)

	if e.config.SetupTest != nil {
		if err := e.config.SetupTest(testCtx, tc, state); err != nil {
			result.Error = fmt.Errorf("test setup failed: %w", err)
			return finish()
		}
	}

	result.Passed = true
	for i := range tc.Steps {
		stepResult := e.executeStep(testCtx, &tc.Steps[i], i, state)
		result.StepResults = append(result.StepResults, stepResult)

		if !stepResult.Passed {
			result.Passed = false
			result.Error = stepResult.Error
			break
		}
	}

	return finish()
}

// executeStep executes a single step.
func (e *Engine) executeStep(ctx context.Context, step *loader.Step, index int, state *ExecutionState) *StepResult {
	result := &StepResult{
		Step:          step,
		StepIndex:     index,
		ExpectResults: make(map[string]*ExpectResult),
		Output:        make(map[string]interface{}),
	}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	timeout := e.config.StepTimeout
	if step.Timeout != "" {
		if d, err := time.ParseDuration(step.Timeout); err == nil {
			timeout = d
		}
	}
	// Wait steps get their duration on top of the step timeout.
	if dur := StepDuration(step.Params); dur > 0 {
		timeout += dur
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.mu.RLock()
	handler, exists := e.handlers[step.Action]
	e.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("unknown action: %s", step.Action)
		return result
	}

	outputs, err := handler(stepCtx, step, state)
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", step.Action, err)
		return result
	}

	for k, v := range outputs {
		state.Set(k, v)
		result.Output[k] = v
	}

	outputCopy := make(map[string]interface{}, len(result.Output))
	for k, v := range result.Output {
		outputCopy[k] = v
	}
	state.Set(InternalStepOutput, outputCopy)

	result.Passed = true
	for key, expected := range InterpolateParams(step.Expect, state) {
		expectResult := e.checkExpectation(key, expected, state)
		result.ExpectResults[key] = expectResult
		if !expectResult.Passed {
			result.Passed = false
			result.Error = fmt.Errorf("expectation failed: %s - %s", key, expectResult.Message)
		}
	}

	return result
}

// checkExpectation checks a single expectation.
func (e *Engine) checkExpectation(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	e.mu.RLock()
	checker, exists := e.checkers[key]
	if !exists {
		checker = e.checkers[CheckerNameDefault]
	}
	e.mu.RUnlock()

	return checker(key, expected, state)
}

// defaultChecker compares the output named by key with the expected value.
func defaultChecker(key string, expected interface{}, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(key)
	if !exists {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  fmt.Sprintf("key %q not found in outputs", key),
		}
	}

	// "present" means the key exists with any value.
	if expStr, ok := expected.(string); ok && expStr == "present" {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Actual:   actual,
			Passed:   true,
			Message:  fmt.Sprintf("%s = %v", key, actual),
		}
	}

	passed := equalValues(expected, actual)
	result := &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
	}
	if passed {
		result.Message = fmt.Sprintf("%s = %v", key, expected)
	} else {
		result.Message = fmt.Sprintf("expected %v, got %v", expected, actual)
	}
	return result
}

// equalValues compares numerically when both sides are numbers, and by
// their printed form otherwise.
func equalValues(expected, actual interface{}) bool {
	en, ok1 := ToFloat64(expected)
	an, ok2 := ToFloat64(actual)
	if ok1 && ok2 {
		return en == an
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}

// RunSuite executes all test cases in a suite.
func (e *Engine) RunSuite(ctx context.Context, cases []*loader.TestCase) *SuiteResult {
	result := &SuiteResult{
		SuiteName: "Test Suite",
	}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	suiteTimeout := e.config.SuiteTimeout
	if suiteTimeout == 0 {
		var total time.Duration
		for _, tc := range cases {
			if tc.Timeout != "" {
				if d, err := time.ParseDuration(tc.Timeout); err == nil {
					total += d
					continue
				}
			}
			total += e.config.DefaultTimeout
		}
		suiteTimeout = total + time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, suiteTimeout)
	defer cancel()

	for _, tc := range cases {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		testResult := e.Run(ctx, tc)
		result.Results = append(result.Results, testResult)

		switch {
		case testResult.Skipped:
			result.SkipCount++
		case testResult.Passed:
			result.PassCount++
		default:
			result.FailCount++
		}

		if e.config.OnTestComplete != nil {
			e.config.OnTestComplete(testResult)
		}

		if !testResult.Passed && !testResult.Skipped && e.config.StopOnFirstFailure {
			break
		}
	}

	return result
}

// StepDuration extracts an explicit wait duration from step parameters.
// It checks duration_seconds and duration_ms, returning the longer of the two.
func StepDuration(params map[string]interface{}) time.Duration {
	var d time.Duration
	if sec, ok := ToFloat64(params["duration_seconds"]); ok {
		d = time.Duration(sec * float64(time.Second))
	}
	if ms, ok := ToFloat64(params["duration_ms"]); ok {
		if md := time.Duration(ms * float64(time.Millisecond)); md > d {
			d = md
		}
	}
	return d
}
