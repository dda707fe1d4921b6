// Package connection keeps a controller attached to an instrument across
// dropped sockets.
//
// A Session dials lazily and redials after an I/O failure, spacing
// attempts with exponential backoff:
//
//	delay = base + random(0, base * Jitter)
//	base  = Initial, Initial*Multiplier, ... capped at Max
//
// The backoff resets after every successful dial. A program message whose
// exchange failed is never replayed: SCPI commands are not idempotent
// (INITiate, *TRG, READ?), so the caller sees the error and the next call
// runs on a fresh connection.
package connection
