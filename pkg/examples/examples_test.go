package examples_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
	"github.com/scpi-protocol/scpi-go/pkg/version"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// ok runs line and fails on any unit error.
func ok(t *testing.T, ex interaction.Executor, line string) string {
	t.Helper()
	res := ex.ExecuteFrom("", line)
	require.Nil(t, res.Err, "line %q: %v", line, res.Errors)
	return string(res.Response)
}

// fails runs line and returns its worst error.
func fails(t *testing.T, ex interaction.Executor, line string) *wire.Error {
	t.Helper()
	res := ex.ExecuteFrom("", line)
	require.NotNil(t, res.Err, "line %q should fail", line)
	return res.Err
}

func newPSU(t *testing.T) (*examples.PowerSupply, *interaction.Instrument[*examples.PowerSupply]) {
	t.Helper()
	psu := examples.NewPowerSupply(examples.DefaultPowerSupplyConfig())
	return psu, examples.NewPowerSupplyInstrument(psu)
}

func newDMM(t *testing.T) (*examples.Multimeter, *interaction.Instrument[*examples.Multimeter]) {
	t.Helper()
	dmm := examples.NewMultimeter(examples.DefaultMultimeterConfig())
	return dmm, examples.NewMultimeterInstrument(dmm)
}

func TestPowerSupplyIdentify(t *testing.T) {
	_, in := newPSU(t)
	assert.Equal(t, "SCPI-GO,PSU-3005,PSU000001,1.0.0", ok(t, in, "*IDN?"))
}

func TestPowerSupplyVoltageSetting(t *testing.T) {
	psu, in := newPSU(t)

	assert.Equal(t, "5E+00", ok(t, in, "VOLT 5;VOLT?"))
	assert.Equal(t, 5.0, psu.Voltage())

	// Every default node may be spelled out.
	assert.Equal(t, "7.5E+00", ok(t, in, "SOUR:VOLT:LEV:IMM:AMPL 7.5;:SOURCE:VOLTAGE:LEVEL?"))

	assert.Equal(t, "3E+01", ok(t, in, "VOLT? MAX"))
	assert.Equal(t, "0E+00", ok(t, in, "VOLT MIN;VOLT?"))
	assert.Equal(t, "0E+00", ok(t, in, "VOLT DEF;VOLT?"))
}

func TestPowerSupplyVoltageOutOfRange(t *testing.T) {
	psu, in := newPSU(t)

	err := fails(t, in, "VOLT 31")
	assert.Equal(t, wire.CodeDataOutOfRange, err.Code)
	assert.Equal(t, 0.0, psu.Voltage())
	assert.Equal(t, `-222,"Data out of range;31 not in [0,30]"`, ok(t, in, ":SYST:ERR?"))
}

func TestPowerSupplyMeasurement(t *testing.T) {
	tests := []struct {
		name  string
		setup string
		want  string
	}{
		{
			name:  "output off",
			setup: "VOLT 5",
			want:  "0E+00;0E+00",
		},
		{
			name:  "constant voltage",
			setup: "VOLT 3;CURR 1;:OUTP ON",
			want:  "3E+00;3E-01",
		},
		{
			name:  "constant current",
			setup: "VOLT 12;CURR 0.5;:OUTP ON",
			want:  "5E+00;5E-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, in := newPSU(t)
			ok(t, in, tt.setup)
			// CURR? continues in the MEASure branch.
			assert.Equal(t, tt.want, ok(t, in, "MEAS:VOLT?;CURR?"))
		})
	}
}

func TestPowerSupplyOutputSuffix(t *testing.T) {
	cfg := examples.DefaultPowerSupplyConfig()
	cfg.Outputs = 2
	psu := examples.NewPowerSupply(cfg)
	in := examples.NewPowerSupplyInstrument(psu)

	assert.Equal(t, "0;1", ok(t, in, "OUTP2 ON;:OUTP1?;OUTP2:STAT?"))
	assert.True(t, psu.Output(2))
	assert.False(t, psu.Output(1))

	err := fails(t, in, "OUTP3 ON")
	assert.Equal(t, wire.CodeHeaderSuffixOutOfRange, err.Code)

	err = fails(t, in, "OUTP0?")
	assert.Equal(t, wire.CodeHeaderSuffixOutOfRange, err.Code)
}

func TestPowerSupplyBusTrigger(t *testing.T) {
	psu, in := newPSU(t)

	ok(t, in, "TRIG:SOUR BUS")
	ok(t, in, "VOLT:TRIG 7")
	ok(t, in, "INIT")
	assert.Equal(t, "BUS", ok(t, in, "TRIG:SOUR?"))
	assert.Equal(t, "0E+00", ok(t, in, "VOLT?"))

	assert.Equal(t, "7E+00", ok(t, in, "*TRG;VOLT?"))
	assert.Equal(t, 1, psu.Triggers())

	// The trigger system returned to idle.
	err := fails(t, in, "*TRG")
	assert.Equal(t, wire.CodeTriggerIgnored, err.Code)
	assert.Equal(t, 1, psu.Triggers())
}

func TestPowerSupplyTriggerIgnoredWhenIdle(t *testing.T) {
	_, in := newPSU(t)

	err := fails(t, in, "*TRG")
	assert.Equal(t, wire.CodeTriggerIgnored, err.Code)
	assert.Equal(t, `-211,"Trigger ignored"`, ok(t, in, ":SYST:ERR?"))
}

func TestPowerSupplyInitiateTwice(t *testing.T) {
	_, in := newPSU(t)

	ok(t, in, "TRIG:SOUR BUS")
	ok(t, in, "INIT")
	err := fails(t, in, "INIT")
	assert.Equal(t, wire.CodeInitIgnored, err.Code)
}

func TestPowerSupplyImmediateTrigger(t *testing.T) {
	psu, in := newPSU(t)

	ok(t, in, "VOLT:TRIG 4")
	ok(t, in, "INIT:IMM")
	assert.Equal(t, "4E+00", ok(t, in, "VOLT?"))
	assert.Equal(t, 1, psu.Triggers())
}

func TestPowerSupplyReset(t *testing.T) {
	psu, in := newPSU(t)

	ok(t, in, "VOLT 10;CURR 2;:OUTP ON;:TRIG:SOUR BUS")
	ok(t, in, "*RST")
	assert.Equal(t, "0E+00;1E+00", ok(t, in, "VOLT?;CURR?"))
	assert.Equal(t, "IMM", ok(t, in, "TRIG:SOUR?"))
	assert.False(t, psu.Output(1))
}

func TestPowerSupplyHelpHeaders(t *testing.T) {
	_, in := newPSU(t)
	headers := inspect.NewInspector(in.Dispatcher().Tree().Root()).Headers()

	assert.Contains(t, headers, "[:SOURce]:VOLTage[:LEVel][:IMMediate][:AMPLitude]?")
	assert.Contains(t, headers, "[:SOURce]:VOLTage[:LEVel]:TRIGgered[:AMPLitude]?")
	assert.Contains(t, headers, ":MEASure:VOLTage[:DC]?/qonly/")
	assert.Contains(t, headers, ":INITiate[:IMMediate]/nquery/")
	assert.Contains(t, headers, "*TRG/nquery/")
}

func TestExamplesConformToCurrentVersion(t *testing.T) {
	spec, err := version.LoadCurrentSpec()
	require.NoError(t, err)

	psu := version.ValidateTree(spec, examples.PowerSupplyTree())
	assert.True(t, psu.Valid, "power supply errors: %v", psu.Errors)

	dmm := version.ValidateTree(spec, examples.MultimeterTree())
	assert.True(t, dmm.Valid, "multimeter errors: %v", dmm.Errors)
}

func TestMultimeterMeasure(t *testing.T) {
	dmm, in := newDMM(t)
	dmm.SetInput(1.5, 0.02)

	assert.Equal(t, "1.5E+00", ok(t, in, "MEAS:VOLT?"))
	assert.Equal(t, "2E-02", ok(t, in, "MEAS:CURR:DC?"))
	assert.Equal(t, `"CURR:DC"`, ok(t, in, "CONF?"))
	assert.Equal(t, examples.FunctionCurrentDC, dmm.Function())
}

func TestMultimeterReadSamples(t *testing.T) {
	dmm, in := newDMM(t)
	dmm.SetInput(1.5, 0)

	ok(t, in, "CONF:VOLT")
	ok(t, in, "SAMP:COUN 3")
	assert.Equal(t, "3", ok(t, in, "SAMP:COUN?"))
	assert.Equal(t, "1E+03", ok(t, in, "SAMP:COUN? MAX"))
	assert.Equal(t, "1.5E+00,1.5E+00,1.5E+00", ok(t, in, "READ?"))
	assert.Equal(t, "1.5E+00,1.5E+00,1.5E+00", ok(t, in, "FETC?"))
	assert.Len(t, dmm.Readings(), 3)
}

func TestMultimeterFetchWithoutReadings(t *testing.T) {
	_, in := newDMM(t)

	err := fails(t, in, "FETC?")
	assert.Equal(t, wire.CodeDataStale, err.Code)
}

func TestMultimeterBusTrigger(t *testing.T) {
	dmm, in := newDMM(t)
	dmm.SetInput(2.25, 0)

	ok(t, in, "TRIG:SOUR BUS")
	ok(t, in, "INIT")
	err := fails(t, in, "FETC?")
	assert.Equal(t, wire.CodeDataStale, err.Code)

	assert.Equal(t, "2.25E+00", ok(t, in, "*TRG;FETC?"))

	err = fails(t, in, "READ?")
	assert.Equal(t, wire.CodeTriggerDeadlock, err.Code)
}

func TestMultimeterConfigurePresetsTrigger(t *testing.T) {
	dmm, in := newDMM(t)
	dmm.SetInput(1, 0)

	ok(t, in, "TRIG:SOUR BUS")
	ok(t, in, "SAMP:COUN 5")
	assert.Equal(t, "1E+00", ok(t, in, "MEAS:VOLT?"))
	assert.Equal(t, "IMM;1", ok(t, in, "TRIG:SOUR?;:SAMP:COUN?"))
}

func TestMultimeterTriggerIgnored(t *testing.T) {
	_, in := newDMM(t)

	err := fails(t, in, "*TRG")
	assert.Equal(t, wire.CodeTriggerIgnored, err.Code)
	assert.Equal(t, "1", ok(t, in, "SYST:ERR:COUN?"))
}

func TestNewSimulation(t *testing.T) {
	sim, err := examples.NewSimulation("PSU", commands.Identity{Serial: "X1"})
	require.NoError(t, err)
	assert.Equal(t, "psu", sim.Kind)
	assert.Equal(t, "X1", sim.Identity().Serial)
	assert.Equal(t, "PSU-3005", sim.Identity().Model)
	assert.Equal(t, "SCPI-GO,PSU-3005,X1,1.0.0", ok(t, sim.Executor, "*IDN?"))

	sim, err = examples.NewSimulation("dmm", commands.Identity{})
	require.NoError(t, err)
	assert.Equal(t, "DMM-6500", sim.Identity().Model)
	assert.NotNil(t, sim.Root)

	_, err = examples.NewSimulation("scope", commands.Identity{})
	assert.Error(t, err)
}

func TestPowerSupplyOverSocket(t *testing.T) {
	sim, err := examples.NewSimulation("psu", commands.Identity{})
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
	defer client.Close()

	idn, err := client.Query(ctx, "*IDN?")
	require.NoError(t, err)
	assert.Equal(t, "SCPI-GO,PSU-3005,PSU000001,1.0.0", idn)

	require.NoError(t, client.Send(ctx, "TRIG:SOUR BUS"))
	require.NoError(t, client.Send(ctx, "VOLT:TRIG 9;:INIT"))
	require.NoError(t, client.Send(ctx, "*TRX"))

	resp, err := client.Query(ctx, "*TRG;VOLT?;:SYST:ERR?")
	require.NoError(t, err)
	assert.Equal(t, `9E+00;-113,"Undefined header;*TRX"`, resp)

	resp, err = client.Query(ctx, "*OPC?")
	require.NoError(t, err)
	assert.Equal(t, "1", resp)
}
