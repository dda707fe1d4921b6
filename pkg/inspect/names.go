package inspect

import "strings"

// descriptions holds one-line descriptions of the IEEE488.2 common
// commands and the mandatory SCPI SYSTem commands, keyed by long-form path.
var descriptions = map[string]string{
	"*CLS":                 "Clear status",
	"*ESE":                 "Standard event status enable",
	"*ESR":                 "Standard event status register",
	"*IDN":                 "Identification",
	"*OPC":                 "Operation complete",
	"*RST":                 "Reset",
	"*SRE":                 "Service request enable",
	"*STB":                 "Read status byte",
	"*TRG":                 "Bus trigger",
	"*TST":                 "Self-test",
	"*WAI":                 "Wait to continue",
	":SYSTEM:ERROR:NEXT":   "Next error queue entry",
	":SYSTEM:ERROR:COUNT":  "Error queue length",
	":SYSTEM:ERROR:ALL":    "All error queue entries",
	":SYSTEM:VERSION":      "SCPI version",
	":SYSTEM:HELP:HEADERS": "Supported headers",
}

// Describe returns the description registered for a long-form path
// (case-insensitive), or "".
func Describe(path string) string {
	return descriptions[strings.ToUpper(path)]
}

// RegisterDescription adds or replaces a description. Instruments use it
// for their own subsystems at init time.
func RegisterDescription(path, text string) {
	descriptions[strings.ToUpper(path)] = text
}
