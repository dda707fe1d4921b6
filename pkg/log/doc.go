// Package log provides structured protocol logging for SCPI instruments.
//
// Protocol logging is separate from operational logging: it records every
// program line received, every command unit dispatched and every
// connection state change as machine-readable events.
//
// # Basic Usage
//
// Applications pass a Logger to the transport and dispatcher:
//
//	// Development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Production: write to a CBOR file
//	fl, _ := log.NewFileLogger("/var/log/scpi/psu.slog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
//   - Transport: raw text lines in and out (LineEvent)
//   - Dispatch: one record per command unit (UnitEvent)
//   - Service: connection and instrument state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated ErrorEventData payload.
//
// # File Format
//
// Log files are a stream of CBOR items with integer keys, conventionally
// named *.slog. The scpi-log tool views them and computes statistics.
package log
