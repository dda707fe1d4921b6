package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "test"+FileExt)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer r.Close()

	events, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return events
}

func TestFileLoggerWritesAndAppends(t *testing.T) {
	path := createTestLogFile(t, []Event{
		NewLineEvent("conn-1", DirectionIn, "*IDN?"),
		NewLineEvent("conn-1", DirectionOut, "ACME,PSU,1,1.0"),
	})

	// Reopening appends.
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(NewLineEvent("conn-2", DirectionIn, "*RST"))
	if logger.Count() != 1 {
		t.Errorf("Count = %d, want 1", logger.Count())
	}
	if err := logger.Flush(); err != nil {
		t.Fatal(err)
	}
	logger.Close()

	events := readAll(t, path, Filter{})
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].Line.Text != "ACME,PSU,1,1.0" {
		t.Errorf("second line = %q", events[1].Line.Text)
	}
	if events[2].ConnectionID != "conn-2" {
		t.Errorf("appended event conn = %q", events[2].ConnectionID)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "x"+FileExt))
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	logger.Log(Event{})
	if logger.Count() != 0 {
		t.Error("event logged after Close")
	}
	if err := logger.Flush(); err != nil {
		t.Errorf("Flush after Close: %v", err)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c"+FileExt)
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Log(NewLineEvent("c", DirectionIn, "MEAS:VOLT?"))
			}
		}()
	}
	wg.Wait()
	logger.Close()

	if got := len(readAll(t, path, Filter{})); got != 400 {
		t.Errorf("got %d events, want 400", got)
	}
}

func TestReaderEmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty"+FileExt)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next on empty file = %v, want io.EOF", err)
	}

	if _, err := NewReader(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	code := -113
	events := []Event{
		{Timestamp: base, ConnectionID: "a", Direction: DirectionIn, Layer: LayerTransport, Category: CategoryMessage, Line: &LineEvent{Size: 4, Text: "*TRX"}},
		{Timestamp: base.Add(time.Second), ConnectionID: "a", Layer: LayerDispatch, Instrument: "PSU", Unit: &UnitEvent{Header: "*TRX", Code: &code}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "b", Layer: LayerDispatch, Instrument: "DMM", Unit: &UnitEvent{Header: "MEAS:VOLT?", Query: true}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "b", Direction: DirectionOut, Layer: LayerTransport, Line: &LineEvent{Text: "1E+00"}},
		{Timestamp: base.Add(4 * time.Second), ConnectionID: "b", Layer: LayerService, Category: CategoryError, Error: &ErrorEventData{Message: "reset"}},
	}
	path := createTestLogFile(t, events)

	out := DirectionOut
	dispatch := LayerDispatch
	errCat := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"connection", Filter{ConnectionID: "b"}, 3},
		{"direction", Filter{Direction: &out}, 1},
		{"layer", Filter{Layer: &dispatch}, 2},
		{"category", Filter{Category: &errCat}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"instrument", Filter{Instrument: "DMM"}, 1},
		{"header prefix", Filter{Header: "meas"}, 1},
		{"failures", Filter{FailuresOnly: true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(readAll(t, path, tt.filter)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}
