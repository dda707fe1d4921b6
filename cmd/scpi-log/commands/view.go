// Package commands implements the scpi-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category

	// Header keeps only units whose header starts with this prefix.
	Header string

	// FailuresOnly keeps failed units and error events.
	FailuresOnly bool
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		Layer:        f.Layer,
		Direction:    f.Direction,
		Category:     f.Category,
		Header:       f.Header,
		FailuresOnly: f.FailuresOnly,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Line != nil:
		typeLabel = "Line"
	case event.Unit != nil:
		typeLabel = "Unit"
		if event.Unit.Query {
			typeLabel = "Query"
		}
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, event.Layer.String(), typeLabel)

	switch {
	case event.Line != nil:
		formatLineDetails(w, event.Line)
	case event.Unit != nil:
		formatUnitDetails(w, event.Unit)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID, or
// "local" for console lines.
func shortenConnID(id string) string {
	if id == "" {
		return "local"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatLineDetails(w io.Writer, line *log.LineEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", line.Size)
	if line.Text != "" {
		fmt.Fprintf(w, "  Text: %q", line.Text)
		if line.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatUnitDetails(w io.Writer, u *log.UnitEvent) {
	fmt.Fprintf(w, "  Unit: %d  Header: %s", u.Index, u.Header)
	if u.Params > 0 {
		fmt.Fprintf(w, "  Params: %d", u.Params)
	}
	fmt.Fprintln(w)
	if u.Path != "" {
		fmt.Fprintf(w, "  Path: %s\n", u.Path)
	}
	if u.Code != nil {
		fmt.Fprintf(w, "  Error: %d (%s)\n", *u.Code, u.Kind)
	}
	if u.Response != "" {
		fmt.Fprintf(w, "  Response: %s\n", u.Response)
	}
	if u.ProcessingTime != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*u.ProcessingTime))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "dispatch":
		return log.LayerDispatch, nil
	case "service":
		return log.LayerService, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, dispatch, or service)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
