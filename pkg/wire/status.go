package wire

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol error.
type Kind uint8

const (
	// KindNone is the zero value; it never appears on a reported error.
	KindNone Kind = 0

	// KindUndefinedHeader indicates the header does not resolve to a leaf.
	KindUndefinedHeader Kind = 1

	// KindModeNotSupported indicates a query was sent to an event-only
	// leaf, or an event to a query-only leaf.
	KindModeNotSupported Kind = 2

	// KindParameterError indicates wrong parameter count, type or range.
	KindParameterError Kind = 3

	// KindDeviceError indicates a handler-reported hardware or logical failure.
	KindDeviceError Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindUndefinedHeader:
		return "UNDEFINED_HEADER"
	case KindModeNotSupported:
		return "MODE_NOT_SUPPORTED"
	case KindParameterError:
		return "PARAMETER_ERROR"
	case KindDeviceError:
		return "DEVICE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Severity ranks kinds for worst-error reporting. Higher is worse.
func (k Kind) Severity() int {
	switch k {
	case KindUndefinedHeader:
		return 1
	case KindModeNotSupported:
		return 2
	case KindParameterError:
		return 3
	case KindDeviceError:
		return 4
	default:
		return 0
	}
}

// SCPI error codes (SCPI-1999 Vol. 2, chapter 21).
const (
	CodeNoError = 0

	// Command errors (-1xx).
	CodeCommandError           = -100
	CodeInvalidCharacter       = -101
	CodeSyntaxError            = -102
	CodeDataTypeError          = -104
	CodeParameterNotAllowed    = -108
	CodeMissingParameter       = -109
	CodeUndefinedHeader        = -113
	CodeHeaderSuffixOutOfRange = -114
	CodeStringDataError        = -150

	// Execution errors (-2xx).
	CodeExecutionError        = -200
	CodeTriggerError          = -210
	CodeTriggerIgnored        = -211
	CodeInitIgnored           = -213
	CodeTriggerDeadlock       = -214
	CodeParameterError        = -220
	CodeSettingsConflict      = -221
	CodeDataOutOfRange        = -222
	CodeIllegalParameterValue = -224
	CodeDataStale             = -230

	// Device-specific errors (-3xx).
	CodeDeviceError    = -300
	CodeSelfTestFailed = -330
	CodeQueueOverflow  = -350

	// Query errors (-4xx).
	CodeQueryError = -400
)

// codeText holds the standard descriptions for the codes above.
var codeText = map[int]string{
	CodeNoError:                "No error",
	CodeCommandError:           "Command error",
	CodeInvalidCharacter:       "Invalid character",
	CodeSyntaxError:            "Syntax error",
	CodeDataTypeError:          "Data type error",
	CodeParameterNotAllowed:    "Parameter not allowed",
	CodeMissingParameter:       "Missing parameter",
	CodeUndefinedHeader:        "Undefined header",
	CodeHeaderSuffixOutOfRange: "Header suffix out of range",
	CodeStringDataError:        "String data error",
	CodeExecutionError:         "Execution error",
	CodeTriggerError:           "Trigger error",
	CodeTriggerIgnored:         "Trigger ignored",
	CodeInitIgnored:            "Init ignored",
	CodeTriggerDeadlock:        "Trigger deadlock",
	CodeParameterError:         "Parameter error",
	CodeSettingsConflict:       "Settings conflict",
	CodeDataOutOfRange:         "Data out of range",
	CodeIllegalParameterValue:  "Illegal parameter value",
	CodeDataStale:              "Data corrupt or stale",
	CodeDeviceError:            "Device-specific error",
	CodeSelfTestFailed:         "Self-test failed",
	CodeQueueOverflow:          "Queue overflow",
	CodeQueryError:             "Query error",
}

// CodeText returns the standard description for a SCPI error code,
// or an empty string for codes without one.
func CodeText(code int) string {
	return codeText[code]
}

// Error is a classified SCPI protocol error.
type Error struct {
	// Kind classifies the error.
	Kind Kind

	// Code is the SCPI error number.
	Code int

	// Detail is optional device-dependent information appended to the
	// standard description.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// NewError creates an error of the given kind and code.
func NewError(kind Kind, code int, detail string) *Error {
	return &Error{Kind: kind, Code: code, Detail: detail}
}

// Description returns the error text as reported by SYSTem:ERRor?,
// "<standard text>;<detail>".
func (e *Error) Description() string {
	text := CodeText(e.Code)
	switch {
	case text == "":
		return e.Detail
	case e.Detail == "":
		return text
	default:
		return text + ";" + e.Detail
	}
}

// Entry formats the error as an error-queue entry: <code>,"<description>".
func (e *Error) Entry() string {
	return fmt.Sprintf("%d,%s", e.Code, QuoteString(e.Description()))
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Entry(), e.Cause)
	}
	return e.Entry()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UndefinedHeader creates a -113 error naming the offending header.
func UndefinedHeader(header string) *Error {
	return NewError(KindUndefinedHeader, CodeUndefinedHeader, header)
}

// ModeNotSupported creates the error for a query sent to an event-only
// leaf (query=true) or an event sent to a query-only leaf.
func ModeNotSupported(header string, query bool) *Error {
	detail := "Command only"
	if !query {
		detail = "Query only"
	}
	if header != "" {
		detail += " " + header
	}
	return NewError(KindModeNotSupported, CodeCommandError, detail)
}

// ParameterErrorf creates a parameter error with a formatted detail.
func ParameterErrorf(code int, format string, args ...any) *Error {
	return NewError(KindParameterError, code, fmt.Sprintf(format, args...))
}

// DeviceErrorf creates a device error with a formatted detail. Codes
// outside the standard table are reported with the detail only.
func DeviceErrorf(code int, format string, args ...any) *Error {
	return NewError(KindDeviceError, code, fmt.Sprintf(format, args...))
}

// AsError classifies err. Errors that already are (or wrap) an *Error are
// returned as such; anything else becomes a -300 device error wrapping err.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{
		Kind:   KindDeviceError,
		Code:   CodeDeviceError,
		Detail: err.Error(),
		Cause:  err,
	}
}

// Worst returns whichever of a and b has the higher severity. On ties the
// earlier error (a) wins.
func Worst(a, b *Error) *Error {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Kind.Severity() > a.Kind.Severity():
		return b
	default:
		return a
	}
}
