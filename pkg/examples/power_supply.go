package examples

import (
	"math"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/status"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// PowerSupplyConfig contains configuration for creating a PowerSupply.
type PowerSupplyConfig struct {
	Identity commands.Identity

	// Outputs is the number of output relays (OUTPut1..OUTPutN).
	Outputs int

	MaxVoltage float64 // V
	MaxCurrent float64 // A

	// LoadResistance is the simulated load on output 1, in ohms.
	LoadResistance float64
}

// DefaultPowerSupplyConfig returns a single-channel 30 V / 5 A supply
// driving a 10 ohm load.
func DefaultPowerSupplyConfig() PowerSupplyConfig {
	return PowerSupplyConfig{
		Identity: commands.Identity{
			Manufacturer: "SCPI-GO",
			Model:        "PSU-3005",
			Serial:       "PSU000001",
			Firmware:     "1.0.0",
		},
		Outputs:        1,
		MaxVoltage:     30,
		MaxCurrent:     5,
		LoadResistance: 10,
	}
}

// Reset values.
const (
	psuDefaultVoltage = 0.0
	psuDefaultCurrent = 1.0
)

// PowerSupply is a simulated programmable DC power supply. Output 1
// drives a resistive load; further outputs are relays without a load.
//
// The device is not safe for concurrent use; serve it through an
// interaction.Instrument.
type PowerSupply struct {
	cfg    PowerSupplyConfig
	status *status.Model

	voltage   float64
	triggered float64
	current   float64
	outputs   []bool

	trigger triggerState
}

// NewPowerSupply creates a new power supply in its reset state.
func NewPowerSupply(cfg PowerSupplyConfig) *PowerSupply {
	if cfg.Outputs < 1 {
		cfg.Outputs = 1
	}
	p := &PowerSupply{
		cfg:     cfg,
		status:  status.NewModel(),
		outputs: make([]bool, cfg.Outputs),
	}
	_ = p.Reset()
	return p
}

// PowerSupplyTree returns the command tree of the power supply:
//
//	[SOURce:]VOLTage[:LEVel][:IMMediate][:AMPLitude] <V>|MIN|MAX|DEF
//	[SOURce:]VOLTage[:LEVel]:TRIGgered[:AMPLitude] <V>|MIN|MAX|DEF
//	[SOURce:]CURRent[:LEVel] <A>|MIN|MAX|DEF
//	OUTPut#[:STATe] ON|OFF
//	MEASure:VOLTage[:DC]?
//	MEASure:CURRent[:DC]?
//	TRIGger:SOURce BUS|IMMediate
//	INITiate[:IMMediate]
//
// plus the common commands and the SYSTem subsystem.
func PowerSupplyTree() *model.Tree[*PowerSupply] {
	type D = *PowerSupply
	entries := commands.Common[D]()
	entries = append(entries,
		commands.System[D](),
		model.Branch[D]("SOURce", true,
			model.Branch[D]("VOLTage", false,
				model.Branch[D]("LEVel", true,
					model.Branch[D]("IMMediate", true,
						model.Leaf[D]("AMPLitude", true, model.Handlers[D]{
							OnEvent: (*PowerSupply).setVoltage,
							OnQuery: (*PowerSupply).queryVoltage,
						}),
					),
					model.Branch[D]("TRIGgered", false,
						model.Leaf[D]("AMPLitude", true, model.Handlers[D]{
							OnEvent: (*PowerSupply).setTriggeredVoltage,
							OnQuery: (*PowerSupply).queryTriggeredVoltage,
						}),
					),
				),
			),
			model.Branch[D]("CURRent", false,
				model.Leaf[D]("LEVel", true, model.Handlers[D]{
					OnEvent: (*PowerSupply).setCurrent,
					OnQuery: (*PowerSupply).queryCurrent,
				}),
			),
		),
		model.Branch[D]("OUTPut#", false,
			model.Leaf[D]("STATe", true, model.Handlers[D]{
				OnEvent: (*PowerSupply).setOutput,
				OnQuery: (*PowerSupply).queryOutput,
			}),
		),
		model.Branch[D]("MEASure", false,
			model.Branch[D]("VOLTage", false,
				model.Leaf[D]("DC", true, model.QueryFunc[D]((*PowerSupply).measureVoltage)),
			),
			model.Branch[D]("CURRent", false,
				model.Leaf[D]("DC", true, model.QueryFunc[D]((*PowerSupply).measureCurrent)),
			),
		),
		model.Branch[D]("TRIGger", false,
			triggerSourceLeaf[D](),
		),
		model.Branch[D]("INITiate", false,
			model.Leaf[D]("IMMediate", true, model.EventFunc[D]((*PowerSupply).initiate)),
		),
	)
	return model.MustTree(entries...)
}

// NewPowerSupplyInstrument serves p through a dispatcher whose errors
// feed p's status model.
func NewPowerSupplyInstrument(p *PowerSupply) *interaction.Instrument[*PowerSupply] {
	return newInstrument(p, PowerSupplyTree(), p.cfg.Identity.Model)
}

// BusTrigger applies the triggered voltage when the trigger system is
// initiated with BUS source; otherwise it reports -211.
func (p *PowerSupply) BusTrigger() error {
	if err := p.trigger.bus(); err != nil {
		return err
	}
	p.voltage = p.triggered
	return nil
}

// Reset returns to 0 V, 1 A, all outputs off, immediate trigger source.
func (p *PowerSupply) Reset() error {
	p.voltage = psuDefaultVoltage
	p.triggered = psuDefaultVoltage
	p.current = psuDefaultCurrent
	for i := range p.outputs {
		p.outputs[i] = false
	}
	p.trigger.reset()
	return nil
}

// Identity implements commands.Identifier.
func (p *PowerSupply) Identity() commands.Identity {
	return p.cfg.Identity
}

// SelfTest always passes.
func (p *PowerSupply) SelfTest() (int, error) {
	return 0, nil
}

// Status implements commands.StatusHolder.
func (p *PowerSupply) Status() *status.Model {
	return p.status
}

// WaitComplete returns at once: settings apply synchronously.
func (p *PowerSupply) WaitComplete() error {
	return nil
}

func (p *PowerSupply) triggerSystem() *triggerState {
	return &p.trigger
}

// Voltage returns the programmed voltage.
func (p *PowerSupply) Voltage() float64 {
	return p.voltage
}

// Output reports the state of output n (1-based).
func (p *PowerSupply) Output(n int) bool {
	if n < 1 || n > len(p.outputs) {
		return false
	}
	return p.outputs[n-1]
}

// Triggers returns the number of triggers taken since reset.
func (p *PowerSupply) Triggers() int {
	return p.trigger.triggers
}

// SetLoad changes the simulated load resistance.
func (p *PowerSupply) SetLoad(ohms float64) {
	p.cfg.LoadResistance = ohms
}

// operating returns the terminal voltage and current of output 1. The
// supply runs in constant current mode when the load would draw more
// than the current limit.
func (p *PowerSupply) operating() (float64, float64) {
	if !p.outputs[0] || p.cfg.LoadResistance <= 0 {
		return 0, 0
	}
	i := p.voltage / p.cfg.LoadResistance
	if i <= p.current {
		return p.voltage, i
	}
	return p.current * p.cfg.LoadResistance, p.current
}

func (p *PowerSupply) setVoltage(_ *model.Context, params *wire.Parameters) error {
	v, err := params.Numeric(0, p.cfg.MaxVoltage, psuDefaultVoltage)
	if err != nil {
		return err
	}
	p.voltage = v
	return nil
}

func (p *PowerSupply) queryVoltage(_ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	return limitQuery(params, resp, p.voltage, 0, p.cfg.MaxVoltage, psuDefaultVoltage)
}

func (p *PowerSupply) setTriggeredVoltage(_ *model.Context, params *wire.Parameters) error {
	v, err := params.Numeric(0, p.cfg.MaxVoltage, psuDefaultVoltage)
	if err != nil {
		return err
	}
	p.triggered = v
	return nil
}

func (p *PowerSupply) queryTriggeredVoltage(_ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	return limitQuery(params, resp, p.triggered, 0, p.cfg.MaxVoltage, psuDefaultVoltage)
}

func (p *PowerSupply) setCurrent(_ *model.Context, params *wire.Parameters) error {
	v, err := params.Numeric(0, p.cfg.MaxCurrent, psuDefaultCurrent)
	if err != nil {
		return err
	}
	p.current = v
	return nil
}

func (p *PowerSupply) queryCurrent(_ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	return limitQuery(params, resp, p.current, 0, p.cfg.MaxCurrent, psuDefaultCurrent)
}

// outputIndex maps the OUTPut suffix to a relay, rejecting suffixes
// beyond the configured outputs.
func (p *PowerSupply) outputIndex(ctx *model.Context) (int, error) {
	n := ctx.Suffix(0)
	if n > len(p.outputs) {
		return 0, wire.NewError(wire.KindUndefinedHeader, wire.CodeHeaderSuffixOutOfRange, ctx.Header())
	}
	return n - 1, nil
}

func (p *PowerSupply) setOutput(ctx *model.Context, params *wire.Parameters) error {
	i, err := p.outputIndex(ctx)
	if err != nil {
		return err
	}
	on, err := params.Bool()
	if err != nil {
		return err
	}
	p.outputs[i] = on
	return nil
}

func (p *PowerSupply) queryOutput(ctx *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	i, err := p.outputIndex(ctx)
	if err != nil {
		return err
	}
	resp.Bool(p.outputs[i])
	return nil
}

func (p *PowerSupply) measureVoltage(_ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	v, _ := p.operating()
	resp.Float(round(v))
	return nil
}

func (p *PowerSupply) measureCurrent(_ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	_, i := p.operating()
	resp.Float(round(i))
	return nil
}

func (p *PowerSupply) initiate(_ *model.Context, _ *wire.Parameters) error {
	fire, err := p.trigger.initiate()
	if err != nil {
		return err
	}
	if fire {
		p.voltage = p.triggered
	}
	return nil
}

// round keeps six significant digits, as a real converter would.
func round(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, 5-math.Floor(math.Log10(math.Abs(v))))
	return math.Round(v*scale) / scale
}
