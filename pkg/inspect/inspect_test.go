package inspect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

type D = struct{}

func noop(D, *model.Context, *wire.Parameters) error { return nil }

func answer(D, *model.Context, *wire.Parameters, *wire.Response) error { return nil }

func testTree(t *testing.T) *model.Tree[D] {
	t.Helper()
	tree, err := model.NewTree(
		model.Branch[D]("SOURce", true,
			model.Branch[D]("VOLTage", false,
				model.Branch[D]("LEVel", true,
					model.Leaf[D]("IMMediate", true, model.Handlers[D]{OnEvent: noop, OnQuery: answer}),
					model.Leaf[D]("TRIGgered", false, model.EventFunc[D](noop)),
				),
			),
		),
		model.Leaf[D]("*TRG", false, model.EventFunc[D](noop)),
		model.Branch[D]("MEASure", false,
			model.Leaf[D]("VOLTage", false, model.QueryFunc[D](answer)),
		),
		model.Leaf[D]("*IDN", false, model.QueryFunc[D](answer)),
	)
	require.NoError(t, err)
	return tree
}

func lookup(t *testing.T, tree *model.Tree[D], header string) *model.Node {
	t.Helper()
	n, err := tree.Lookup(header)
	require.NoError(t, err)
	return n
}

func TestNotation(t *testing.T) {
	tree := testTree(t)

	assert.Equal(t, ":", Notation(tree.Root()))
	assert.Equal(t, "*TRG", Notation(lookup(t, tree, "*TRG")))
	assert.Equal(t, "[:SOURce]:VOLTage[:LEVel][:IMMediate]", Notation(lookup(t, tree, "VOLT")))
	assert.Equal(t, "[:SOURce]:VOLTage[:LEVel]:TRIGgered", Notation(lookup(t, tree, "VOLT:TRIG")))
}

func TestHeaderLine(t *testing.T) {
	tree := testTree(t)

	assert.Equal(t, "*TRG"+NoQueryMarker, HeaderLine(lookup(t, tree, "*TRG")))
	assert.Equal(t, "*IDN?"+QueryOnlyMarker, HeaderLine(lookup(t, tree, "*IDN")))
	assert.Equal(t, "[:SOURce]:VOLTage[:LEVel][:IMMediate]?", HeaderLine(lookup(t, tree, "VOLT")))
}

func TestShortHeader(t *testing.T) {
	tree := testTree(t)

	assert.Equal(t, "", ShortHeader(tree.Root()))
	assert.Equal(t, "*IDN", ShortHeader(lookup(t, tree, "*IDN")))
	assert.Equal(t, "VOLT:TRIG", ShortHeader(lookup(t, tree, "SOUR:VOLT:LEV:TRIG")))
	assert.Equal(t, "MEAS:VOLT", ShortHeader(lookup(t, tree, "MEAS:VOLT")))

	// The short header resolves back to the same leaf.
	for _, l := range NewInspector(tree.Root()).Leaves() {
		assert.Same(t, l.Node, lookup(t, tree, l.Short), l.Path)
	}
}

func TestInspectorHeaders(t *testing.T) {
	tree := testTree(t)
	in := NewInspector(lookup(t, tree, "MEAS:VOLT"))
	assert.Same(t, tree.Root(), in.Root())

	assert.Equal(t, []string{
		"*TRG/nquery/",
		"*IDN?/qonly/",
		"[:SOURce]:VOLTage[:LEVel][:IMMediate]?",
		"[:SOURce]:VOLTage[:LEVel]:TRIGgered/nquery/",
		":MEASure:VOLTage?/qonly/",
	}, in.Headers())
}

func TestInspectorFind(t *testing.T) {
	in := NewInspector(testTree(t).Root())

	found := in.Find("voltage")
	require.Len(t, found, 3)
	assert.Equal(t, ":MEASure:VOLTage", found[2].Path)
	assert.Equal(t, model.ModeQuery, found[2].Modes)

	assert.Empty(t, in.Find("CURR"))
}

func TestInspectorStats(t *testing.T) {
	s := NewInspector(testTree(t).Root()).Stats()

	assert.Equal(t, Stats{
		Branches: 4,
		Leaves:   5,
		Common:   2,
		Queries:  3,
		Events:   3,
		MaxDepth: 4,
	}, s)
	assert.Equal(t, "5 leaves (2 common, 3 queries, 3 events), 4 branches, depth 4", s.String())
}

func TestDescriptions(t *testing.T) {
	assert.Equal(t, "Bus trigger", Describe("*trg"))
	assert.Equal(t, "", Describe(":MEASure:VOLTage"))

	RegisterDescription(":MEASure:VOLTage", "Measured output voltage")
	t.Cleanup(func() { delete(descriptions, ":MEASURE:VOLTAGE") })
	assert.Equal(t, "Measured output voltage", Describe(":measure:voltage"))
}

func TestFormatTree(t *testing.T) {
	f := NewFormatter()
	f.ShowDescriptions = false

	want := strings.Join([]string{
		"[SOURce]",
		"  VOLTage",
		"    [LEVel]",
		"      [IMMediate] (cmd+query)",
		"      TRIGgered (cmd)",
		"*TRG (cmd)",
		"MEASure",
		"  VOLTage (query)",
		"*IDN (query)",
		"",
	}, "\n")
	assert.Equal(t, want, f.FormatTree(testTree(t).Root()))
}

func TestFormatLeafTable(t *testing.T) {
	f := NewFormatter()
	leaves := NewInspector(testTree(t).Root()).Find("*")

	out := f.FormatLeafTable(leaves)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  *TRG  cmd        Bus trigger", lines[0])
	assert.Equal(t, "  *IDN  query      Identification", lines[1])

	assert.Equal(t, "  (no commands)", f.FormatLeafTable(nil))
}

func TestFormatMode(t *testing.T) {
	assert.Equal(t, "cmd", FormatMode(model.ModeEvent))
	assert.Equal(t, "query", FormatMode(model.ModeQuery))
	assert.Equal(t, "cmd+query", FormatMode(model.ModeBoth))
	assert.Equal(t, "-", FormatMode(0))
}

// fakeQuerier answers queries from a script, in order.
type fakeQuerier struct {
	answers map[string][]string
	err     error
	sent    []string
}

func (f *fakeQuerier) Query(_ context.Context, line string) (string, error) {
	f.sent = append(f.sent, line)
	if f.err != nil {
		return "", f.err
	}
	queue := f.answers[line]
	if len(queue) == 0 {
		return "", errors.New("unexpected query " + line)
	}
	f.answers[line] = queue[1:]
	return queue[0], nil
}

func TestRemoteIdentify(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]string{
		"*IDN?": {"ACME,PSU-1,0,1.0\n", "ACME,PSU-1"},
	}}
	r := NewRemoteInspector(q)

	id, err := r.Identify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{Manufacturer: "ACME", Model: "PSU-1", Serial: "0", Firmware: "1.0"}, id)
	assert.Equal(t, "ACME,PSU-1,0,1.0", id.String())

	_, err = r.Identify(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRemoteHeaders(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]string{
		"SYST:HELP:HEAD?": {`"*TRG/nquery/","*IDN?/qonly/"`, `"*TRG`},
	}}
	r := NewRemoteInspector(q)

	headers, err := r.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"*TRG/nquery/", "*IDN?/qonly/"}, headers)

	_, err = r.Headers(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRemoteErrors(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]string{
		"SYST:ERR?": {
			`-113,"Undefined header;*TRX"`,
			`-222,"Data out of range"`,
			`0,"No error"`,
		},
	}}
	r := NewRemoteInspector(q)

	entries, err := r.Errors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ErrorEntry{
		{Code: -113, Description: "Undefined header;*TRX"},
		{Code: -222, Description: "Data out of range"},
	}, entries)
	assert.Len(t, q.sent, 3)
}

func TestRemoteErrorsTransportFailure(t *testing.T) {
	cause := errors.New("connection reset")
	r := NewRemoteInspector(&fakeQuerier{err: cause})

	_, err := r.Errors(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestParseErrorEntry(t *testing.T) {
	e, err := ParseErrorEntry(`-350,"Queue overflow"`)
	require.NoError(t, err)
	assert.Equal(t, ErrorEntry{Code: -350, Description: "Queue overflow"}, e)

	for _, bad := range []string{"", "-113", `x,"y"`, `-113,y`, `1,"a",2`} {
		_, err := ParseErrorEntry(bad)
		assert.ErrorIs(t, err, ErrMalformedResponse, bad)
	}
}
