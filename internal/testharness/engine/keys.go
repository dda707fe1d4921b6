package engine

// Infrastructure keys used internally by the engine.
const (
	InternalStepOutput = "__step_output"
)

// Output keys set by the runner's action handlers and read by checkers.
const (
	KeyResponse      = "response"
	KeyValue         = "value"
	KeyValues        = "values"
	KeyErrorCode     = "error_code"
	KeyErrorCodes    = "error_codes"
	KeyErrorCount    = "error_count"
	KeyErrorMessages = "error_messages"
)

// Checker registration names: the expectation keys that appear in YAML
// test files and are used as map keys in Engine.checkers.
const (
	CheckerNameDefault              = "default"
	CheckerNameValueGreaterThan     = "value_greater_than"
	CheckerNameValueLessThan        = "value_less_than"
	CheckerNameValueInRange         = "value_in_range"
	CheckerNameValueApprox          = "value_approx"
	CheckerNameResponseMatches      = "response_matches"
	CheckerNameResponseContains     = "response_contains"
	CheckerNameErrorCodesContain    = "error_codes_contain"
	CheckerNameValueCount           = "value_count"
	CheckerNameSaveAs               = "save_as"
	CheckerNameValueEqualsSaved     = "value_equals_saved"
	CheckerNameErrorMessageContains = "error_message_contains"
)
