// Package transport provides the SCPI raw socket transport.
//
// The transport layer handles:
//   - TCP connections on port 5025, optionally wrapped in TLS
//   - Newline-terminated message framing
//   - Executing each received line on a shared instrument
//   - Connection state and line logging
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   SCPI program messages        │
//	├────────────────────────────────┤
//	│   Newline framing (\n)         │
//	├────────────────────────────────┤
//	│   TLS (optional)               │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Ordering
//
// A connection is served by one goroutine: a line is read, executed to
// completion and its response written before the next line is read.
// Lines from different connections are serialized by the instrument.
//
// A line that produces no response (only command units, or only failing
// queries) produces no output at all. Controllers read errors with
// SYSTem:ERRor?.
package transport
