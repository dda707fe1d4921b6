package examples

import (
	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/status"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Function is a multimeter measurement function.
type Function uint8

const (
	FunctionVoltageDC Function = iota
	FunctionCurrentDC
)

// String returns the function in CONFigure? notation.
func (f Function) String() string {
	if f == FunctionCurrentDC {
		return "CURR:DC"
	}
	return "VOLT:DC"
}

// MultimeterConfig contains configuration for creating a Multimeter.
type MultimeterConfig struct {
	Identity commands.Identity

	// MaxSamples bounds SAMPle:COUNt.
	MaxSamples int
}

// DefaultMultimeterConfig returns a meter taking up to 1000 samples per
// trigger.
func DefaultMultimeterConfig() MultimeterConfig {
	return MultimeterConfig{
		Identity: commands.Identity{
			Manufacturer: "SCPI-GO",
			Model:        "DMM-6500",
			Serial:       "DMM000001",
			Firmware:     "1.0.0",
		},
		MaxSamples: 1000,
	}
}

// Multimeter is a simulated digital multimeter. Readings come from the
// input set with SetInput.
//
// The device is not safe for concurrent use; serve it through an
// interaction.Instrument.
type Multimeter struct {
	cfg    MultimeterConfig
	status *status.Model

	function Function
	samples  int
	readings []float64

	inputVoltage float64
	inputCurrent float64

	trigger triggerState
}

// NewMultimeter creates a new multimeter in its reset state.
func NewMultimeter(cfg MultimeterConfig) *Multimeter {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = 1
	}
	m := &Multimeter{cfg: cfg, status: status.NewModel()}
	_ = m.Reset()
	return m
}

// MultimeterTree returns the command tree of the multimeter:
//
//	CONFigure:VOLTage[:DC]
//	CONFigure:CURRent[:DC]
//	CONFigure?
//	SAMPle:COUNt <n>|MIN|MAX|DEF
//	TRIGger:SOURce BUS|IMMediate
//	INITiate[:IMMediate]
//	FETCh?
//	READ?
//	MEASure:VOLTage[:DC]?
//	MEASure:CURRent[:DC]?
//
// plus the common commands and the SYSTem subsystem.
func MultimeterTree() *model.Tree[*Multimeter] {
	type D = *Multimeter
	configure := func(f Function) model.EventFunc[D] {
		return func(m D, _ *model.Context, _ *wire.Parameters) error {
			m.configure(f)
			return nil
		}
	}
	measure := func(f Function) model.QueryFunc[D] {
		return func(m D, ctx *model.Context, params *wire.Parameters, resp *wire.Response) error {
			m.configure(f)
			return m.read(ctx, params, resp)
		}
	}

	entries := commands.Common[D]()
	entries = append(entries,
		commands.System[D](),
		model.Branch[D]("CONFigure", false,
			model.Branch[D]("VOLTage", false,
				model.Leaf[D]("DC", true, configure(FunctionVoltageDC)),
			),
			model.Branch[D]("CURRent", false,
				model.Leaf[D]("DC", true, configure(FunctionCurrentDC)),
			),
			model.Leaf[D]("FUNCtion", true, model.QueryFunc[D]((*Multimeter).queryConfigure)),
		),
		model.Branch[D]("SAMPle", false,
			model.Leaf[D]("COUNt", false, model.Handlers[D]{
				OnEvent: (*Multimeter).setSampleCount,
				OnQuery: (*Multimeter).querySampleCount,
			}),
		),
		model.Branch[D]("TRIGger", false,
			triggerSourceLeaf[D](),
		),
		model.Branch[D]("INITiate", false,
			model.Leaf[D]("IMMediate", true, model.EventFunc[D]((*Multimeter).initiate)),
		),
		model.Leaf[D]("FETCh", false, model.QueryFunc[D]((*Multimeter).fetch)),
		model.Leaf[D]("READ", false, model.QueryFunc[D]((*Multimeter).read)),
		model.Branch[D]("MEASure", false,
			model.Branch[D]("VOLTage", false,
				model.Leaf[D]("DC", true, measure(FunctionVoltageDC)),
			),
			model.Branch[D]("CURRent", false,
				model.Leaf[D]("DC", true, measure(FunctionCurrentDC)),
			),
		),
	)
	return model.MustTree(entries...)
}

// NewMultimeterInstrument serves m through a dispatcher whose errors feed
// m's status model.
func NewMultimeterInstrument(m *Multimeter) *interaction.Instrument[*Multimeter] {
	return newInstrument(m, MultimeterTree(), m.cfg.Identity.Model)
}

// BusTrigger takes a reading set when the meter waits for a bus trigger;
// otherwise it reports -211.
func (m *Multimeter) BusTrigger() error {
	if err := m.trigger.bus(); err != nil {
		return err
	}
	m.acquire()
	return nil
}

// Reset selects DC voltage, one sample, immediate trigger source and
// discards readings.
func (m *Multimeter) Reset() error {
	m.function = FunctionVoltageDC
	m.samples = 1
	m.readings = nil
	m.trigger.reset()
	return nil
}

// Identity implements commands.Identifier.
func (m *Multimeter) Identity() commands.Identity {
	return m.cfg.Identity
}

// SelfTest always passes.
func (m *Multimeter) SelfTest() (int, error) {
	return 0, nil
}

// Status implements commands.StatusHolder.
func (m *Multimeter) Status() *status.Model {
	return m.status
}

// WaitComplete returns at once: acquisitions complete synchronously.
func (m *Multimeter) WaitComplete() error {
	return nil
}

func (m *Multimeter) triggerSystem() *triggerState {
	return &m.trigger
}

// SetInput sets the simulated signal at the input terminals.
func (m *Multimeter) SetInput(volts, amps float64) {
	m.inputVoltage = volts
	m.inputCurrent = amps
}

// Function returns the configured measurement function.
func (m *Multimeter) Function() Function {
	return m.function
}

// Readings returns the stored readings.
func (m *Multimeter) Readings() []float64 {
	return append([]float64(nil), m.readings...)
}

// configure selects a function and presets one sample with immediate
// triggering. Stored readings are discarded.
func (m *Multimeter) configure(f Function) {
	m.function = f
	m.samples = 1
	m.readings = nil
	m.trigger.source = TriggerImmediate
	m.trigger.armed = false
}

func (m *Multimeter) acquire() {
	v := m.inputVoltage
	if m.function == FunctionCurrentDC {
		v = m.inputCurrent
	}
	m.readings = make([]float64, m.samples)
	for i := range m.readings {
		m.readings[i] = round(v)
	}
}

func (m *Multimeter) queryConfigure(_ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	resp.String(m.function.String())
	return nil
}

func (m *Multimeter) setSampleCount(_ *model.Context, params *wire.Parameters) error {
	n, err := params.Numeric(1, float64(m.cfg.MaxSamples), 1)
	if err != nil {
		return err
	}
	m.samples = int(n)
	m.readings = nil
	return nil
}

func (m *Multimeter) querySampleCount(_ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	if params.HasNext() {
		return limitQuery(params, resp, float64(m.samples), 1, float64(m.cfg.MaxSamples), 1)
	}
	resp.Int(int64(m.samples))
	return nil
}

func (m *Multimeter) initiate(_ *model.Context, _ *wire.Parameters) error {
	fire, err := m.trigger.initiate()
	if err != nil {
		return err
	}
	m.readings = nil
	if fire {
		m.acquire()
	}
	return nil
}

func (m *Multimeter) fetch(_ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	if len(m.readings) == 0 {
		return wire.NewError(wire.KindDeviceError, wire.CodeDataStale, "no readings")
	}
	for _, r := range m.readings {
		resp.Float(r)
	}
	return nil
}

// read is INITiate followed by FETCh?. With BUS source no trigger could
// ever arrive, so it fails with -214.
func (m *Multimeter) read(ctx *model.Context, params *wire.Parameters, resp *wire.Response) error {
	if m.trigger.source == TriggerBus {
		return wire.NewError(wire.KindDeviceError, wire.CodeTriggerDeadlock, "")
	}
	if err := m.initiate(ctx, params); err != nil {
		return err
	}
	return m.fetch(ctx, params, resp)
}
