package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExt)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

func intPtr(v int) *int { return &v }

// sessionEvents is one connection sending "VOLT 5;VOLT?" followed by a bad
// header.
func sessionEvents() []log.Event {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	d := 12 * time.Microsecond
	return []log.Event{
		{
			Timestamp: ts, ConnectionID: "c0ffee00-1111", Direction: log.DirectionIn,
			Layer: log.LayerService, Category: log.CategoryState, RemoteAddr: "10.0.0.7:51000",
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, NewState: "CONNECTED"},
		},
		{
			Timestamp: ts.Add(time.Millisecond), ConnectionID: "c0ffee00-1111", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryMessage,
			Line: &log.LineEvent{Size: 12, Text: "VOLT 5;VOLT?"},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), ConnectionID: "c0ffee00-1111", Direction: log.DirectionIn,
			Layer: log.LayerDispatch, Category: log.CategoryMessage, Instrument: "PSU-3005",
			Unit: &log.UnitEvent{Index: 0, Header: "VOLT", Path: "SOURce:VOLTage:LEVel:IMMediate:AMPLitude", Params: 1, ProcessingTime: &d},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), ConnectionID: "c0ffee00-1111", Direction: log.DirectionIn,
			Layer: log.LayerDispatch, Category: log.CategoryMessage, Instrument: "PSU-3005",
			Unit: &log.UnitEvent{Index: 1, Header: "VOLT?", Path: "SOURce:VOLTage:LEVel:IMMediate:AMPLitude", Query: true, Response: "5E+00"},
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond), ConnectionID: "c0ffee00-1111", Direction: log.DirectionIn,
			Layer: log.LayerDispatch, Category: log.CategoryMessage, Instrument: "PSU-3005",
			Unit: &log.UnitEvent{Index: 0, Header: "*TRX", Code: intPtr(-113), Kind: "undefined header"},
		},
		{
			Timestamp: ts.Add(5 * time.Second), ConnectionID: "c0ffee00-1111", Direction: log.DirectionOut,
			Layer: log.LayerTransport, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerTransport, Message: "line too long", Code: intPtr(-223)},
		},
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.001000Z [conn:c0ffee00] IN  TRANSPORT Line",
		`Text: "VOLT 5;VOLT?"`,
		"Path: SOURce:VOLTage:LEVel:IMMediate:AMPLitude",
		"DISPATCH Query",
		"Response: 5E+00",
		"Error: -113 (undefined header)",
		"Duration: 12.000us",
		"-> CONNECTED",
		"Message: line too long",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	layer := log.LayerDispatch
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer, FailuresOnly: true}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "*TRX") {
		t.Errorf("expected failed unit in output:\n%s", out)
	}
	if strings.Contains(out, "VOLT?") {
		t.Errorf("successful unit should be filtered out:\n%s", out)
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{Header: "volt"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "DISPATCH"); got != 2 {
		t.Errorf("header filter matched %d units, want 2", got)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.slog"), ViewFilter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Dispatch"); err != nil || l != log.LayerDispatch {
		t.Errorf("ParseLayerFlag(Dispatch) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if c, err := ParseCategoryFlag("error"); err != nil || c != log.CategoryError {
		t.Errorf("ParseCategoryFlag(error) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("control"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	var event log.Event
	if err := json.Unmarshal([]byte(lines[3]), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Unit == nil || event.Unit.Response != "5E+00" {
		t.Errorf("unexpected unit: %+v", event.Unit)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("got %d records, want 7", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", records[0])
	}
	bad := records[5]
	if bad[6] != "unit" || bad[7] != "*TRX" || bad[8] != "-113" {
		t.Errorf("failed unit row = %v", bad)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "filtered.slog")

	n, err := RunFilter(path, FilterOptions{Output: out, Layer: "dispatch", Instrument: "PSU-3005"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("filtered %d events, want 3", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("open filtered log: %v", err)
	}
	defer reader.Close()
	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read filtered log: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("filtered log has %d events, want 3", len(events))
	}
	for _, e := range events {
		if e.Unit == nil {
			t.Errorf("non-unit event in filtered log: %+v", e)
		}
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "filtered.slog")

	if _, err := RunFilter(path, FilterOptions{Output: out, TimeStart: "yesterday"}); err == nil {
		t.Error("expected error for bad time-start")
	}
	if _, err := RunFilter(path, FilterOptions{Output: out, Direction: "up"}); err == nil {
		t.Error("expected error for bad direction")
	}
}

func TestRunFilterTimeRange(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "filtered.slog")

	n, err := RunFilter(path, FilterOptions{
		Output:  out,
		TimeEnd: "2026-03-02T09:30:01Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 5 {
		t.Errorf("filtered %d events, want 5", n)
	}
}

func TestCollectStats(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if stats.TotalEvents != 6 {
		t.Errorf("TotalEvents = %d, want 6", stats.TotalEvents)
	}
	if got := stats.EventsByLayer[log.LayerDispatch]; got != 3 {
		t.Errorf("dispatch events = %d, want 3", got)
	}
	if got := stats.Headers["SOURce:VOLTage:LEVel:IMMediate:AMPLitude"]; got != 2 {
		t.Errorf("voltage units = %d, want 2", got)
	}
	if got := stats.Headers["*TRX"]; got != 1 {
		t.Errorf("*TRX units = %d, want 1", got)
	}
	if stats.FailuresByCode[-113] != 1 || stats.FailuresByCode[-223] != 1 {
		t.Errorf("FailuresByCode = %v", stats.FailuresByCode)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	conn := stats.Connections["c0ffee00-1111"]
	if conn == nil {
		t.Fatal("connection not tracked")
	}
	if conn.Lines != 1 || conn.RemoteAddr != "10.0.0.7:51000" || conn.Instrument != "PSU-3005" {
		t.Errorf("connection stats = %+v", conn)
	}
}

func TestRunStatsOutput(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Total Events: 6",
		"DISPATCH:",
		"Connections: 1",
		"[c0ffee00] 6 events, 1 lines",
		"Remote: 10.0.0.7:51000",
		"Failures by Code:",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestRunStatsEmpty(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
