package runner

// Action names as they appear in YAML test steps.
const (
	ActionSend     = "send"
	ActionQuery    = "query"
	ActionErrors   = "errors"
	ActionIdentify = "identify"
	ActionHeaders  = "headers"
	ActionReset    = "reset"
	ActionWait     = "wait"
)

// Step parameter names.
const (
	ParamLine       = "line"
	ParamDurationMs = "duration_ms"
)

// Output keys set by handlers, beyond the engine's response and error keys.
const (
	KeySent         = "sent"
	KeyManufacturer = "manufacturer"
	KeyModel        = "model"
	KeySerial       = "serial"
	KeyFirmware     = "firmware"
	KeyHeaderCount  = "header_count"
	KeyWaited       = "waited"
)

// resetLine restores the instrument to a known state before each test.
const resetLine = "*RST;*CLS"
