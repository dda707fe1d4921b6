package commands

import (
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// TriggerMnemonic is the header of the bus trigger command.
const TriggerMnemonic = "*TRG"

// Trigger returns the *TRG leaf. It has no query form and is not a
// default child, so it must be addressed explicitly.
func Trigger[D BusTriggerer]() model.Entry[D] {
	return model.Leaf[D](TriggerMnemonic, false, triggerHandler[D]{})
}

type triggerHandler[D BusTriggerer] struct{}

// Event performs a bus trigger and returns its outcome unchanged.
// Parameters are refused before the device is touched.
func (triggerHandler[D]) Event(dev D, _ *model.Context, params *wire.Parameters) error {
	if err := params.Done(); err != nil {
		return err
	}
	return dev.BusTrigger()
}
