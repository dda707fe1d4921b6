package commands

import (
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/status"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Reset returns the *RST leaf.
func Reset[D Resetter]() model.Entry[D] {
	return model.Leaf[D]("*RST", false, model.EventFunc[D](
		func(dev D, _ *model.Context, params *wire.Parameters) error {
			if err := params.Done(); err != nil {
				return err
			}
			return dev.Reset()
		}))
}

// Identify returns the *IDN? leaf.
func Identify[D Identifier]() model.Entry[D] {
	return model.Leaf[D]("*IDN", false, model.QueryFunc[D](
		func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			id := dev.Identity()
			resp.Raw(orZero(id.Manufacturer))
			resp.Raw(orZero(id.Model))
			resp.Raw(orZero(id.Serial))
			resp.Raw(orZero(id.Firmware))
			return nil
		}))
}

// Clear returns the *CLS leaf.
func Clear[D StatusHolder]() model.Entry[D] {
	return model.Leaf[D]("*CLS", false, model.EventFunc[D](
		func(dev D, _ *model.Context, params *wire.Parameters) error {
			if err := params.Done(); err != nil {
				return err
			}
			dev.Status().Clear()
			return nil
		}))
}

// EventStatusEnable returns the *ESE / *ESE? leaf.
func EventStatusEnable[D StatusHolder]() model.Entry[D] {
	return model.Leaf[D]("*ESE", false, model.Handlers[D]{
		OnEvent: func(dev D, _ *model.Context, params *wire.Parameters) error {
			v, err := params.IntRange(0, 255)
			if err != nil {
				return err
			}
			dev.Status().SetESE(uint8(v))
			return nil
		},
		OnQuery: func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			resp.Uint(uint64(dev.Status().ESE()))
			return nil
		},
	})
}

// EventStatusRegister returns the *ESR? leaf. Reading clears the register.
func EventStatusRegister[D StatusHolder]() model.Entry[D] {
	return model.Leaf[D]("*ESR", false, model.QueryFunc[D](
		func(dev D, _ *model.Context, params *wire.Parameters, resp *wire.Response) error {
			if err := params.Done(); err != nil {
				return err
			}
			resp.Uint(uint64(dev.Status().ReadESR()))
			return nil
		}))
}

// ServiceRequestEnable returns the *SRE / *SRE? leaf.
func ServiceRequestEnable[D StatusHolder]() model.Entry[D] {
	return model.Leaf[D]("*SRE", false, model.Handlers[D]{
		OnEvent: func(dev D, _ *model.Context, params *wire.Parameters) error {
			v, err := params.IntRange(0, 255)
			if err != nil {
				return err
			}
			dev.Status().SetSRE(uint8(v))
			return nil
		},
		OnQuery: func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			resp.Uint(uint64(dev.Status().SRE()))
			return nil
		},
	})
}

// StatusByte returns the *STB? leaf.
func StatusByte[D StatusHolder]() model.Entry[D] {
	return model.Leaf[D]("*STB", false, model.QueryFunc[D](
		func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			resp.Uint(uint64(dev.Status().STB()))
			return nil
		}))
}

type completer interface {
	StatusHolder
	OperationWaiter
}

// OperationComplete returns the *OPC / *OPC? leaf. The command form sets
// the OPC event bit once pending operations finish; the query form
// answers 1 at that point.
func OperationComplete[D completer]() model.Entry[D] {
	return model.Leaf[D]("*OPC", false, model.Handlers[D]{
		OnEvent: func(dev D, _ *model.Context, params *wire.Parameters) error {
			if err := params.Done(); err != nil {
				return err
			}
			if err := dev.WaitComplete(); err != nil {
				return err
			}
			dev.Status().SetEvent(status.ESROperationComplete)
			return nil
		},
		OnQuery: func(dev D, _ *model.Context, params *wire.Parameters, resp *wire.Response) error {
			if err := params.Done(); err != nil {
				return err
			}
			if err := dev.WaitComplete(); err != nil {
				return err
			}
			resp.Int(1)
			return nil
		},
	})
}

// Wait returns the *WAI leaf.
func Wait[D OperationWaiter]() model.Entry[D] {
	return model.Leaf[D]("*WAI", false, model.EventFunc[D](
		func(dev D, _ *model.Context, params *wire.Parameters) error {
			if err := params.Done(); err != nil {
				return err
			}
			return dev.WaitComplete()
		}))
}

// SelfTest returns the *TST? leaf. A failing test is still answered with
// its result code; an error from the device is reported as -330.
func SelfTest[D SelfTester]() model.Entry[D] {
	return model.Leaf[D]("*TST", false, model.QueryFunc[D](
		func(dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
			result, err := dev.SelfTest()
			if err != nil {
				return &wire.Error{
					Kind:   wire.KindDeviceError,
					Code:   wire.CodeSelfTestFailed,
					Detail: err.Error(),
					Cause:  err,
				}
			}
			resp.Int(int64(result))
			return nil
		}))
}

// Common returns every IEEE488.2 common command, *TRG first.
func Common[D Instrument]() []model.Entry[D] {
	return []model.Entry[D]{
		Trigger[D](),
		Reset[D](),
		Identify[D](),
		Clear[D](),
		EventStatusEnable[D](),
		EventStatusRegister[D](),
		ServiceRequestEnable[D](),
		StatusByte[D](),
		OperationComplete[D](),
		Wait[D](),
		SelfTest[D](),
	}
}

// orZero substitutes "0" for empty *IDN? fields, as IEEE488.2 requires.
func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
