package examples

import (
	"fmt"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// TriggerSource selects what starts a measurement or a triggered setting.
type TriggerSource uint8

const (
	// TriggerImmediate fires as soon as the trigger system is initiated.
	TriggerImmediate TriggerSource = iota

	// TriggerBus waits for *TRG after INITiate.
	TriggerBus
)

// String returns the SCPI short form.
func (s TriggerSource) String() string {
	if s == TriggerBus {
		return "BUS"
	}
	return "IMM"
}

// triggerSourceLeaf is the TRIGger:SOURce BUS|IMMediate leaf shared by
// both examples.
func triggerSourceLeaf[D interface{ triggerSystem() *triggerState }]() model.Entry[D] {
	return model.Leaf[D]("SOURce", false, model.Handlers[D]{
		OnEvent: func(dev D, _ *model.Context, params *wire.Parameters) error {
			i, err := params.Choice("IMMediate", "BUS")
			if err != nil {
				return err
			}
			dev.triggerSystem().source = TriggerSource(i)
			return nil
		},
		OnQuery: func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			resp.Keyword(dev.triggerSystem().source.String())
			return nil
		},
	})
}

// triggerState is the IEEE488.2 trigger model: idle, or initiated and
// waiting for a trigger.
type triggerState struct {
	source   TriggerSource
	armed    bool
	triggers int
}

// initiate arms the trigger system. It reports whether the trigger fires
// at once.
func (t *triggerState) initiate() (bool, error) {
	if t.armed {
		return false, wire.NewError(wire.KindDeviceError, wire.CodeInitIgnored, "")
	}
	if t.source == TriggerImmediate {
		t.triggers++
		return true, nil
	}
	t.armed = true
	return false, nil
}

// bus accepts a bus trigger when the system waits for one.
func (t *triggerState) bus() error {
	if !t.armed || t.source != TriggerBus {
		return wire.NewError(wire.KindDeviceError, wire.CodeTriggerIgnored, "")
	}
	t.armed = false
	t.triggers++
	return nil
}

func (t *triggerState) reset() {
	*t = triggerState{}
}

// limitQuery answers a setting query, honoring the optional MINimum,
// MAXimum and DEFault argument ("VOLT? MAX").
func limitQuery(params *wire.Parameters, resp *wire.Response, value, min, max, def float64) error {
	if params.HasNext() {
		i, err := params.Choice("MINimum", "MAXimum", "DEFault")
		if err != nil {
			return err
		}
		value = []float64{min, max, def}[i]
	}
	resp.Float(value)
	return nil
}

// Simulation bundles an example device with its serialized dispatcher,
// for servers and consoles that do not know the device type.
type Simulation struct {
	// Kind is the example name ("psu" or "dmm").
	Kind string

	// Executor runs program messages on the device.
	Executor interaction.Executor

	// Root is the compiled command tree.
	Root *model.Node

	identity  commands.Identity
	setLogger func(log.Logger)
}

// Identity returns the *IDN? fields of the simulated device.
func (s *Simulation) Identity() commands.Identity {
	return s.identity
}

// SetLogger attaches a protocol logger to the dispatcher.
func (s *Simulation) SetLogger(logger log.Logger) {
	s.setLogger(logger)
}

// Kinds lists the available simulations.
func Kinds() []string {
	return []string{"psu", "dmm"}
}

// NewSimulation builds the named example. Empty identity fields keep the
// example defaults.
func NewSimulation(kind string, id commands.Identity) (*Simulation, error) {
	switch strings.ToLower(kind) {
	case "psu":
		cfg := DefaultPowerSupplyConfig()
		overrideIdentity(&cfg.Identity, id)
		psu := NewPowerSupply(cfg)
		in := NewPowerSupplyInstrument(psu)
		return &Simulation{
			Kind:      "psu",
			Executor:  in,
			Root:      in.Dispatcher().Tree().Root(),
			identity:  psu.Identity(),
			setLogger: in.Dispatcher().SetLogger,
		}, nil
	case "dmm":
		cfg := DefaultMultimeterConfig()
		overrideIdentity(&cfg.Identity, id)
		dmm := NewMultimeter(cfg)
		in := NewMultimeterInstrument(dmm)
		return &Simulation{
			Kind:      "dmm",
			Executor:  in,
			Root:      in.Dispatcher().Tree().Root(),
			identity:  dmm.Identity(),
			setLogger: in.Dispatcher().SetLogger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown instrument kind %q (want one of %s)", kind, strings.Join(Kinds(), ", "))
	}
}

func overrideIdentity(dst *commands.Identity, src commands.Identity) {
	if src.Manufacturer != "" {
		dst.Manufacturer = src.Manufacturer
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Serial != "" {
		dst.Serial = src.Serial
	}
	if src.Firmware != "" {
		dst.Firmware = src.Firmware
	}
}

func newInstrument[D commands.StatusHolder](dev D, tree *model.Tree[D], name string) *interaction.Instrument[D] {
	d := interaction.NewDispatcher(tree)
	d.SetErrorSink(dev.Status())
	d.SetInstrument(name)
	return interaction.NewInstrument(dev, d)
}
