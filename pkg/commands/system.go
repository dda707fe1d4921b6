package commands

import (
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/version"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// System returns the SYSTem subsystem:
//
//	SYSTem:ERRor[:NEXT]?
//	SYSTem:ERRor:COUNt?
//	SYSTem:ERRor:ALL?
//	SYSTem:VERSion?
//	SYSTem:HELP:HEADers?
func System[D StatusHolder]() model.Entry[D] {
	return model.Branch[D]("SYSTem", false,
		model.Branch[D]("ERRor", false,
			model.Leaf[D]("NEXT", true, model.QueryFunc[D](errorNext[D])),
			model.Leaf[D]("COUNt", false, model.QueryFunc[D](errorCount[D])),
			model.Leaf[D]("ALL", false, model.QueryFunc[D](errorAll[D])),
		),
		model.Leaf[D]("VERSion", false, model.QueryFunc[D](
			func(_ D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
				resp.Raw(version.Current)
				return nil
			})),
		model.Branch[D]("HELP", false,
			model.Leaf[D]("HEADers", false, model.QueryFunc[D](helpHeaders[D])),
		),
	)
}

func errorNext[D StatusHolder](dev D, _ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	if err := params.Done(); err != nil {
		return err
	}
	resp.Raw(dev.Status().Queue().Next().Entry())
	return nil
}

func errorCount[D StatusHolder](dev D, _ *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	resp.Int(int64(dev.Status().Queue().Count()))
	return nil
}

func errorAll[D StatusHolder](dev D, _ *model.Context, params *wire.Parameters, resp *wire.Response) error {
	if err := params.Done(); err != nil {
		return err
	}
	entries := dev.Status().Queue().Drain()
	if len(entries) == 0 {
		resp.Raw(wire.NewError(wire.KindNone, wire.CodeNoError, "").Entry())
		return nil
	}
	for _, e := range entries {
		resp.Raw(e.Entry())
	}
	return nil
}

func helpHeaders[D any](_ D, ctx *model.Context, _ *wire.Parameters, resp *wire.Response) error {
	for _, h := range inspect.NewInspector(ctx.Leaf()).Headers() {
		resp.String(h)
	}
	return nil
}
