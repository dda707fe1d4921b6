package commands_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/commands/mocks"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/status"
	"github.com/scpi-protocol/scpi-go/pkg/version"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

type D = *mocks.MockInstrument

type fixture struct {
	dev    D
	status *status.Model
	disp   *interaction.Dispatcher[D]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := mocks.NewMockInstrument(t)
	st := status.NewModel()
	dev.EXPECT().Status().Return(st).Maybe()

	tree, err := model.NewTree(append(commands.Common[D](), commands.System[D]())...)
	require.NoError(t, err)

	disp := interaction.NewDispatcher(tree)
	disp.SetErrorSink(st)
	return &fixture{dev: dev, status: st, disp: disp}
}

func (f *fixture) query(t *testing.T, line string) string {
	t.Helper()
	res := f.disp.Execute(f.dev, line)
	require.Nil(t, res.Err, "line %q", line)
	return string(res.Response)
}

func TestTriggerInvokesBusTriggerOnce(t *testing.T) {
	f := newFixture(t)
	f.dev.EXPECT().BusTrigger().Return(nil).Once()

	res := f.disp.Execute(f.dev, "*TRG")
	assert.Nil(t, res.Err)
	assert.Empty(t, res.Errors)
	assert.False(t, res.HasResponse())
}

func TestTriggerQueryIsRejected(t *testing.T) {
	f := newFixture(t)

	res := f.disp.Execute(f.dev, "*TRG?")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.KindModeNotSupported, res.Err.Kind)
	assert.Empty(t, res.Response)
	f.dev.AssertNotCalled(t, "BusTrigger")
}

func TestTriggerTwiceInOrder(t *testing.T) {
	f := newFixture(t)

	var order []int
	f.dev.EXPECT().BusTrigger().Run(func() { order = append(order, len(order)) }).Return(nil).Times(2)

	res := f.disp.Execute(f.dev, "*TRG;*TRG")
	assert.Nil(t, res.Err)
	assert.Equal(t, []int{0, 1}, order)
	require.Len(t, res.Units, 2)
	assert.Equal(t, 0, res.Units[0].Unit.Index)
	assert.Equal(t, 1, res.Units[1].Unit.Index)
}

func TestTriggerMisspelled(t *testing.T) {
	f := newFixture(t)

	res := f.disp.Execute(f.dev, "*TRX")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.KindUndefinedHeader, res.Err.Kind)
	f.dev.AssertNotCalled(t, "BusTrigger")
}

func TestTriggerPropagatesDeviceError(t *testing.T) {
	f := newFixture(t)

	ignored := wire.DeviceErrorf(wire.CodeTriggerIgnored, "not armed")
	f.dev.EXPECT().BusTrigger().Return(ignored).Once()
	res := f.disp.Execute(f.dev, "*TRG")
	require.NotNil(t, res.Err)
	assert.Same(t, ignored, res.Err)

	cause := errors.New("bus fault")
	f.dev.EXPECT().BusTrigger().Return(cause).Once()
	res = f.disp.Execute(f.dev, "*TRG")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.CodeDeviceError, res.Err.Code)
	assert.ErrorIs(t, res.Err, cause)
}

func TestTriggerWithParameterDoesNotTrigger(t *testing.T) {
	f := newFixture(t)

	res := f.disp.Execute(f.dev, "*TRG 5")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.CodeParameterNotAllowed, res.Err.Code)
	f.dev.AssertNotCalled(t, "BusTrigger")
}

func TestZeroParameterCommandsRefuseParameters(t *testing.T) {
	f := newFixture(t)

	for _, line := range []string{"*RST 1", "*WAI 1", "*OPC 1", "*OPC? 1"} {
		res := f.disp.Execute(f.dev, line)
		require.NotNil(t, res.Err, line)
		assert.Equal(t, wire.CodeParameterNotAllowed, res.Err.Code, line)
	}
	f.dev.AssertNotCalled(t, "Reset")
	f.dev.AssertNotCalled(t, "WaitComplete")
	assert.Zero(t, f.status.ReadESR()&status.ESROperationComplete)

	// The queue holds the four -108 entries; neither *CLS nor the error
	// queries with a parameter may consume them.
	f.disp.Execute(f.dev, "*CLS 1;SYST:ERR? 1;SYST:ERR:ALL? 1")
	assert.Equal(t, 7, f.status.Queue().Count())
}

func TestTriggerEntryShape(t *testing.T) {
	e := commands.Trigger[D]()
	assert.Equal(t, "*TRG", e.Name)
	assert.False(t, e.Default)
	assert.Empty(t, e.Children)
	assert.NotNil(t, e.Handler)

	_, isQuery := e.Handler.(model.QueryHandler[D])
	assert.False(t, isQuery)
}

func TestIdentify(t *testing.T) {
	f := newFixture(t)
	f.dev.EXPECT().Identity().Return(commands.Identity{
		Manufacturer: "ACME",
		Model:        "PSU-1",
		Firmware:     "1.0",
	})

	assert.Equal(t, "ACME,PSU-1,0,1.0", f.query(t, "*IDN?"))
}

func TestResetAndWait(t *testing.T) {
	f := newFixture(t)
	f.dev.EXPECT().Reset().Return(nil).Once()
	f.dev.EXPECT().WaitComplete().Return(nil).Times(3)

	assert.Equal(t, "1", f.query(t, "*RST;*WAI;*OPC;*OPC?"))
	assert.NotZero(t, f.status.ReadESR()&status.ESROperationComplete)
}

func TestEventStatusEnable(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "32", f.query(t, "*ESE 32;*ESE?"))
	assert.Equal(t, uint8(32), f.status.ESE())

	res := f.disp.Execute(f.dev, "*ESE 256")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.CodeDataOutOfRange, res.Err.Code)

	res = f.disp.Execute(f.dev, "*ESE")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.CodeMissingParameter, res.Err.Code)
}

func TestStatusReporting(t *testing.T) {
	f := newFixture(t)

	// Power-on bit is set initially.
	assert.Equal(t, "128", f.query(t, "*ESR?"))
	assert.Equal(t, "0", f.query(t, "*ESR?"))

	res := f.disp.Execute(f.dev, "*TRX;*SRE 4;*STB?")
	require.NotNil(t, res.Err)
	// EAV (4) and MSS (64) since SRE enables EAV.
	assert.Equal(t, "68", string(res.Response))

	assert.Equal(t, "4", f.query(t, "*SRE?"))
	assert.Equal(t, "32", f.query(t, "*ESR?"), "CME after undefined header")

	f.query(t, "*CLS")
	assert.Equal(t, 0, f.status.Queue().Count())
}

func TestStatusByteMessageAvailable(t *testing.T) {
	f := newFixture(t)

	// An earlier query in the same line leaves output pending.
	assert.Equal(t, "0;16", f.query(t, "*ESE?;*STB?"))
	assert.Equal(t, "0", f.query(t, "*STB?"))

	assert.Equal(t, "16;80", f.query(t, "*SRE 16;*SRE?;*STB?"), "MSS follows an enabled MAV")
	assert.Zero(t, f.status.STB()&status.STBMessageAvailable)
}

func TestSystemError(t *testing.T) {
	f := newFixture(t)

	res := f.disp.Execute(f.dev, "*TRX;SYST:ERR:COUN?;:SYST:ERR?;:SYSTEM:ERROR:NEXT?")
	require.NotNil(t, res.Err)
	assert.Equal(t, `1;-113,"Undefined header;*TRX";0,"No error"`, string(res.Response))

	f.disp.Execute(f.dev, "*TRX;*ESE 999")
	assert.Equal(t, `-113,"Undefined header;*TRX",-222,"Data out of range;999 not in [0,255]"`,
		f.query(t, "SYST:ERR:ALL?"))
	assert.Equal(t, `0,"No error"`, f.query(t, "SYST:ERR:ALL?"))
}

func TestSystemVersion(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, version.Current, f.query(t, "SYST:VERS?"))

	res := f.disp.Execute(f.dev, "SYST:VERS")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.KindModeNotSupported, res.Err.Kind)
}

func TestSystemHelpHeaders(t *testing.T) {
	f := newFixture(t)

	resp := f.query(t, "SYST:HELP:HEAD?")
	values, err := wire.SplitValues(resp)
	require.NoError(t, err)

	var headers []string
	for _, v := range values {
		s, err := wire.UnquoteString(v)
		require.NoError(t, err)
		headers = append(headers, s)
	}

	assert.Equal(t, "*TRG/nquery/", headers[0])
	assert.Contains(t, headers, "*IDN?/qonly/")
	assert.Contains(t, headers, "*ESE?")
	assert.Contains(t, headers, ":SYSTem:ERRor[:NEXT]?/qonly/")
	assert.Contains(t, headers, ":SYSTem:HELP:HEADers?/qonly/")
	for _, h := range headers {
		assert.False(t, strings.HasPrefix(h, "[:"), h)
	}
}

func TestSelfTest(t *testing.T) {
	f := newFixture(t)

	f.dev.EXPECT().SelfTest().Return(0, nil).Once()
	assert.Equal(t, "0", f.query(t, "*TST?"))

	f.dev.EXPECT().SelfTest().Return(0, errors.New("relay stuck")).Once()
	res := f.disp.Execute(f.dev, "*TST?")
	require.NotNil(t, res.Err)
	assert.Equal(t, wire.CodeSelfTestFailed, res.Err.Code)
	assert.Equal(t, wire.KindDeviceError, res.Err.Kind)
}

func TestCommonConformsToCurrentVersion(t *testing.T) {
	tree := model.MustTree(append(commands.Common[D](), commands.System[D]())...)
	spec, err := version.LoadCurrentSpec()
	require.NoError(t, err)

	result := version.ValidateTree(spec, tree)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestSinkReceivesEveryError(t *testing.T) {
	f := newFixture(t)
	var got []int
	f.disp.SetErrorSink(interaction.ErrorSinkFunc(func(err *wire.Error) {
		got = append(got, err.Code)
	}))

	f.dev.EXPECT().BusTrigger().Return(nil).Once()
	f.disp.Execute(f.dev, "*TRX;*TRG;*TRG?;*ESE 300")
	assert.Equal(t, []int{wire.CodeUndefinedHeader, wire.CodeCommandError, wire.CodeDataOutOfRange}, got)
}
