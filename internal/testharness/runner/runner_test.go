package runner

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

var casesDir = filepath.Join("..", "..", "..", "testdata", "cases")

func resultsByID(result *engine.SuiteResult) map[string]*engine.TestResult {
	out := make(map[string]*engine.TestResult, len(result.Results))
	for _, r := range result.Results {
		out[r.TestCase.ID] = r
	}
	return out
}

func failures(result *engine.SuiteResult) []string {
	var out []string
	for _, r := range result.Results {
		if !r.Passed && !r.Skipped {
			out = append(out, r.TestCase.ID+": "+r.Error.Error())
		}
	}
	return out
}

func TestRunAgainstSimulations(t *testing.T) {
	tests := []struct {
		kind    string
		passed  []string
		skipped []string
	}{
		{
			kind:    "psu",
			passed:  []string{"TC-TRG-001", "TC-TRG-002", "TC-TRG-003", "TC-TRG-004", "TC-ERR-001", "TC-ERR-002", "TC-PSU-001", "TC-IDN-001", "TC-IDN-002", "TC-RST-001"},
			skipped: []string{"TC-TRG-005", "TC-TRG-006"},
		},
		{
			kind:    "dmm",
			passed:  []string{"TC-TRG-002", "TC-TRG-003", "TC-TRG-004", "TC-TRG-005", "TC-TRG-006", "TC-ERR-002", "TC-IDN-001", "TC-IDN-002", "TC-RST-001"},
			skipped: []string{"TC-TRG-001", "TC-ERR-001", "TC-PSU-001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			var out bytes.Buffer
			r := New(&Config{
				Simulate: tt.kind,
				TestDir:  casesDir,
				Output:   &out,
			})
			defer r.Close()

			result, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Empty(t, failures(result))

			byID := resultsByID(result)
			for _, id := range tt.passed {
				if assert.Contains(t, byID, id) {
					assert.True(t, byID[id].Passed, id)
				}
			}
			for _, id := range tt.skipped {
				if assert.Contains(t, byID, id) {
					assert.True(t, byID[id].Skipped, id)
				}
			}
			assert.Contains(t, out.String(), "--- Summary: SCPI Conformance Tests (simulated "+tt.kind+") ---")
		})
	}
}

func TestRunOverSocket(t *testing.T) {
	sim, err := examples.NewSimulation("psu", commands.Identity{Serial: "SOCK01"})
	require.NoError(t, err)

	server, err := transport.NewServer(transport.ServerConfig{
		Address:  "127.0.0.1:0",
		Executor: sim.Executor,
	})
	require.NoError(t, err)
	require.NoError(t, server.Start(context.Background()))
	defer server.Stop()

	var out bytes.Buffer
	r := New(&Config{
		Target:       server.Addr().String(),
		TestDir:      casesDir,
		Files:        "trigger-*",
		QueryTimeout: 2 * time.Second,
		Output:       &out,
		OutputFormat: "json",
	})
	defer r.Close()

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures(result))
	assert.Equal(t, 4, result.PassCount)
	assert.Equal(t, 2, result.SkipCount)
	assert.Equal(t, "SOCK01", r.Identity().Serial)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 7)
}

func TestRunWithInjectedSession(t *testing.T) {
	sim, err := examples.NewSimulation("dmm", commands.Identity{})
	require.NoError(t, err)

	r := New(&Config{
		TestDir: casesDir,
		Pattern: "TC-TRG-00[56]",
		Output:  &bytes.Buffer{},
	})
	r.session = NewLocalSession(sim.Executor)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PassCount)
	assert.Equal(t, 0, result.FailCount)
}

func TestRunErrors(t *testing.T) {
	t.Run("no matching tests", func(t *testing.T) {
		r := New(&Config{Simulate: "psu", TestDir: casesDir, Pattern: "TC-NONE-*", Output: &bytes.Buffer{}})
		_, err := r.Run(context.Background())
		assert.ErrorContains(t, err, "no test cases found")
	})

	t.Run("missing directory", func(t *testing.T) {
		r := New(&Config{Simulate: "psu", TestDir: filepath.Join(t.TempDir(), "missing"), Output: &bytes.Buffer{}})
		_, err := r.Run(context.Background())
		assert.ErrorContains(t, err, "failed to load tests")
	})

	t.Run("unknown simulation", func(t *testing.T) {
		r := New(&Config{Simulate: "scope", TestDir: casesDir, Output: &bytes.Buffer{}})
		_, err := r.Run(context.Background())
		assert.ErrorContains(t, err, "unknown instrument kind")
	})

	t.Run("no target", func(t *testing.T) {
		r := New(&Config{TestDir: casesDir, Output: &bytes.Buffer{}})
		_, err := r.Run(context.Background())
		assert.ErrorContains(t, err, "no target")
	})
}

func TestNoResetKeepsState(t *testing.T) {
	sim, err := examples.NewSimulation("psu", commands.Identity{})
	require.NoError(t, err)
	session := NewLocalSession(sim.Executor)
	require.NoError(t, session.Send(context.Background(), "*TRG"))

	r := New(&Config{
		TestDir: casesDir,
		Pattern: "TC-ERR-002",
		NoReset: true,
		Output:  &bytes.Buffer{},
	})
	r.session = session

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	// The -211 queued before the run is still there, so the count is 3.
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Passed)
}

func TestLocalSessionQuery(t *testing.T) {
	sim, err := examples.NewSimulation("psu", commands.Identity{})
	require.NoError(t, err)
	s := NewLocalSession(sim.Executor)
	ctx := context.Background()

	resp, err := s.Query(ctx, "TRIG:SOUR?")
	require.NoError(t, err)
	assert.Equal(t, "IMM", resp)

	_, err = s.Query(ctx, "*CLS")
	assert.ErrorIs(t, err, ErrNoResponse)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Send(cancelled, "*CLS"), context.Canceled)
}

func TestResponseOutputs(t *testing.T) {
	out := responseOutputs("3E+00;3E-01")
	assert.Equal(t, "3E+00;3E-01", out[engine.KeyResponse])
	assert.Equal(t, []string{"3E+00", "3E-01"}, out[engine.KeyValues])
	assert.Equal(t, 3.0, out[engine.KeyValue])

	out = responseOutputs(`"CURR:DC"`)
	assert.Equal(t, []string{`"CURR:DC"`}, out[engine.KeyValues])
	assert.NotContains(t, out, engine.KeyValue)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name, pattern string
		want          bool
	}{
		{"TC-001", "*", true},
		{"TC-001", "TC-001", true},
		{"TC-001", "TC-002", false},
		{"TC-TRG-001", "TC-TRG*", true},
		{"TC-TRG-001", "*TRG*", true},
		{"TC-TRG-001", "*001", true},
		{"TC-TRG-001", "TC-ERR*", false},
		{"TC-TRG-005", "TC-TRG-00[56]", true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"_"+tt.pattern, func(t *testing.T) {
			got := matchPattern(tt.name, tt.pattern)
			if got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.name, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestFilters(t *testing.T) {
	cases := []*loader.TestCase{
		{ID: "TC-TRG-001", Name: "bus", Tags: []string{"trigger"}},
		{ID: "TC-TRG-002", Name: "idle", Tags: []string{"trigger", "errors"}},
		{ID: "TC-ERR-001", Name: "range", Tags: []string{"errors"}},
	}

	ids := func(cs []*loader.TestCase) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"TC-TRG-001", "TC-ERR-001"}, ids(filterByPattern(cases, "TC-TRG-001, range")))
	assert.Equal(t, cases, filterByPattern(cases, " , "))
	assert.Equal(t, []string{"TC-TRG-001", "TC-TRG-002"}, ids(filterByTags(cases, "trigger")))
	assert.Equal(t, []string{"TC-TRG-001"}, ids(filterByExcludeTags(cases, "errors")))
}
