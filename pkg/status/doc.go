// Package status implements the IEEE488.2 status reporting model: the
// error/event queue read by SYSTem:ERRor?, the Standard Event Status
// Register with its enable mask, and the Status Byte with its service
// request enable mask.
//
// Model ties them together and is the usual interaction.ErrorSink for an
// instrument: every dispatch failure is queued and sets the matching ESR
// bit.
package status
