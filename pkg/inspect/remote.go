package inspect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Querier sends a query line to a remote instrument and returns its
// response line. transport.Client implements it.
type Querier interface {
	Query(ctx context.Context, line string) (string, error)
}

// ErrMalformedResponse is returned when a response cannot be parsed.
var ErrMalformedResponse = errors.New("malformed response")

// MaxDrain bounds the number of SYSTem:ERRor? queries issued by Errors.
const MaxDrain = 64

// Identity is the parsed *IDN? response.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// String returns the identity in *IDN? form.
func (id Identity) String() string {
	return strings.Join([]string{id.Manufacturer, id.Model, id.Serial, id.Firmware}, ",")
}

// RemoteInspector inspects an instrument over a connection.
type RemoteInspector struct {
	q Querier
}

// NewRemoteInspector creates a remote inspector.
func NewRemoteInspector(q Querier) *RemoteInspector {
	return &RemoteInspector{q: q}
}

// Identify queries *IDN?.
func (r *RemoteInspector) Identify(ctx context.Context) (Identity, error) {
	resp, err := r.q.Query(ctx, "*IDN?")
	if err != nil {
		return Identity{}, err
	}
	fields := strings.Split(strings.TrimSpace(resp), ",")
	if len(fields) != 4 {
		return Identity{}, fmt.Errorf("%w: *IDN? returned %q", ErrMalformedResponse, resp)
	}
	return Identity{
		Manufacturer: fields[0],
		Model:        fields[1],
		Serial:       fields[2],
		Firmware:     fields[3],
	}, nil
}

// Headers queries SYSTem:HELP:HEADers?.
func (r *RemoteInspector) Headers(ctx context.Context) ([]string, error) {
	resp, err := r.q.Query(ctx, "SYST:HELP:HEAD?")
	if err != nil {
		return nil, err
	}
	values, err := wire.SplitValues(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, err := wire.UnquoteString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ErrorEntry is one parsed SYSTem:ERRor? entry.
type ErrorEntry struct {
	Code        int
	Description string
}

// ParseErrorEntry parses `<code>,"<description>"`.
func ParseErrorEntry(s string) (ErrorEntry, error) {
	values, err := wire.SplitValues(s)
	if err != nil || len(values) != 2 {
		return ErrorEntry{}, fmt.Errorf("%w: error entry %q", ErrMalformedResponse, s)
	}
	code, err := strconv.Atoi(values[0])
	if err != nil {
		return ErrorEntry{}, fmt.Errorf("%w: error code %q", ErrMalformedResponse, values[0])
	}
	desc, err := wire.UnquoteString(values[1])
	if err != nil {
		return ErrorEntry{}, fmt.Errorf("%w: error text %q", ErrMalformedResponse, values[1])
	}
	return ErrorEntry{Code: code, Description: desc}, nil
}

// Errors drains the remote error queue.
func (r *RemoteInspector) Errors(ctx context.Context) ([]ErrorEntry, error) {
	var out []ErrorEntry
	for range MaxDrain {
		resp, err := r.q.Query(ctx, "SYST:ERR?")
		if err != nil {
			return out, err
		}
		e, err := ParseErrorEntry(resp)
		if err != nil {
			return out, err
		}
		if e.Code == wire.CodeNoError {
			return out, nil
		}
		out = append(out, e)
	}
	return out, nil
}
