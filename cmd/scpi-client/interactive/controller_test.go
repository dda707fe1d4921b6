package interactive

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

func TestExpectsResponse(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"*IDN?", true},
		{"VOLT 5", false},
		{"VOLT 5;VOLT?", true},
		{"*RST;*CLS", false},
		{`DISP:TEXT "a?b"`, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectsResponse(tt.line))
		})
	}
}

func dialSimulation(t *testing.T, kind string) *transport.Client {
	t.Helper()
	sim, err := examples.NewSimulation(kind, commands.Identity{})
	require.NoError(t, err)

	server, err := transport.NewServer(transport.ServerConfig{
		Address:  "127.0.0.1:0",
		Executor: sim.Executor,
	})
	require.NoError(t, err)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { server.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := transport.Dial(ctx, server.Addr().String(), transport.ClientConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestControllerExec(t *testing.T) {
	var out bytes.Buffer
	c := NewController(dialSimulation(t, "psu"), &out)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "VOLT 7"))
	assert.Empty(t, out.String())

	require.NoError(t, c.Exec(ctx, "VOLT?"))
	assert.Equal(t, "7E+00\n", out.String())
}

func TestControllerCheckErrors(t *testing.T) {
	var out bytes.Buffer
	c := NewController(dialSimulation(t, "psu"), &out)
	c.CheckErrors = true
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "VOLT 31"))
	assert.Equal(t, "! -222,\"Data out of range;31 not in [0,30]\"\n", out.String())

	out.Reset()
	require.NoError(t, c.Exec(ctx, "VOLT 3"))
	assert.Empty(t, out.String())
}

func TestControllerConsoleCommands(t *testing.T) {
	var out bytes.Buffer
	c := NewController(dialSimulation(t, "dmm"), &out)
	ctx := context.Background()

	assert.False(t, c.Handle(ctx, ".identify"))
	assert.Contains(t, out.String(), "Model:        DMM-6500")

	out.Reset()
	c.Handle(ctx, ".headers FETC")
	assert.Contains(t, out.String(), "FETCh")
	assert.NotContains(t, out.String(), "*IDN")

	out.Reset()
	c.Handle(ctx, "*TRX")
	c.Handle(ctx, ".errors")
	assert.Contains(t, out.String(), `! -113,"Undefined header;*TRX"`)

	out.Reset()
	c.Handle(ctx, ".errors")
	assert.Equal(t, "No errors\n", out.String())

	out.Reset()
	c.Handle(ctx, ".check")
	assert.Equal(t, "Error checking: true\n", out.String())

	out.Reset()
	c.Handle(ctx, ".bogus")
	assert.Contains(t, out.String(), "Unknown command: .bogus")

	assert.True(t, c.Handle(ctx, ".quit"))
}
