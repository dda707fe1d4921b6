package examples

import "github.com/scpi-protocol/scpi-go/pkg/inspect"

func init() {
	for path, text := range map[string]string{
		":SOURce:VOLTage:LEVel:IMMediate:AMPLitude": "Output voltage",
		":SOURce:VOLTage:LEVel:TRIGgered:AMPLitude": "Voltage applied on trigger",
		":SOURce:CURRent:LEVel":                     "Current limit",
		":OUTPut#:STATe":                            "Output relay",
		":MEASure:VOLTage:DC":                       "Measure DC voltage",
		":MEASure:CURRent:DC":                       "Measure DC current",
		":TRIGger:SOURce":                           "Trigger source",
		":INITiate:IMMediate":                       "Initiate the trigger system",
		":CONFigure:VOLTage:DC":                     "Configure DC voltage readings",
		":CONFigure:CURRent:DC":                     "Configure DC current readings",
		":CONFigure:FUNCtion":                       "Configured function",
		":SAMPle:COUNt":                             "Readings per trigger",
		":FETCh":                                    "Return stored readings",
		":READ":                                     "Initiate and fetch",
	} {
		inspect.RegisterDescription(path, text)
	}
}
