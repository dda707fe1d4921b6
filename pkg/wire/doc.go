// Package wire defines the SCPI text wire format.
//
// A program message is one line of ASCII text holding one or more
// command units separated by semicolons:
//
//	SOURce:VOLTage 5.0;:OUTPut ON;*TRG;MEASure:VOLTage?
//
// Each unit carries a header (colon-separated mnemonics, or a single
// asterisk-prefixed common command), an optional query marker and an
// optional parameter tail separated from the header by whitespace.
// Parameters are separated by commas.
//
// # Parsing
//
// SplitMessage splits a line into units and ParseUnit turns a unit into
// a Unit with its header segments and raw parameter tokens. Quoted
// strings and parenthesised channel lists are kept intact.
//
// # Parameters and Responses
//
// Handlers consume parameters through Parameters, a forward-only view
// with typed extraction (integers, reals, booleans, strings, keyword
// choices). Query handlers write response values into a Response, which
// renders them comma-separated in write order.
//
// # Errors
//
// Protocol failures are reported as *Error values classified by Kind and
// carrying the SCPI error code (for example -113 "Undefined header").
package wire
