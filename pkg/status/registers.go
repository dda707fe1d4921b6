package status

// Standard Event Status Register bits.
const (
	ESROperationComplete uint8 = 1 << 0 // OPC
	ESRRequestControl    uint8 = 1 << 1 // RQC
	ESRQueryError        uint8 = 1 << 2 // QYE
	ESRDeviceDependent   uint8 = 1 << 3 // DDE
	ESRExecutionError    uint8 = 1 << 4 // EXE
	ESRCommandError      uint8 = 1 << 5 // CME
	ESRUserRequest       uint8 = 1 << 6 // URQ
	ESRPowerOn           uint8 = 1 << 7 // PON
)

// Status Byte bits.
const (
	STBErrorAvailable   uint8 = 1 << 2 // EAV
	STBMessageAvailable uint8 = 1 << 4 // MAV
	STBEventSummary     uint8 = 1 << 5 // ESB
	STBMasterSummary    uint8 = 1 << 6 // MSS/RQS
)

// ESRBitForCode returns the event bit a queued error sets.
func ESRBitForCode(code int) uint8 {
	switch {
	case code <= -100 && code > -200:
		return ESRCommandError
	case code <= -200 && code > -300:
		return ESRExecutionError
	case code <= -300 && code > -400:
		return ESRDeviceDependent
	case code <= -400 && code > -500:
		return ESRQueryError
	case code > 0:
		return ESRDeviceDependent
	default:
		return 0
	}
}

// ESRBitNames lists the ESR bit mnemonics, least significant first.
var ESRBitNames = [8]string{"OPC", "RQC", "QYE", "DDE", "EXE", "CME", "URQ", "PON"}

// DescribeESR returns the names of the bits set in v, e.g. "CME|PON".
func DescribeESR(v uint8) string {
	out := ""
	for i, name := range ESRBitNames {
		if v&(1<<i) == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += name
	}
	return out
}
